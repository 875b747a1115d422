package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/your-org/fileflow/internal/imageproc"
	"github.com/your-org/fileflow/internal/ingestion"
	"github.com/your-org/fileflow/internal/scan"
	"github.com/your-org/fileflow/internal/video"
	"github.com/your-org/fileflow/pkg/config"
	"github.com/your-org/fileflow/pkg/kafka"
	"github.com/your-org/fileflow/pkg/logger"
	"github.com/your-org/fileflow/pkg/metrics"
	"github.com/your-org/fileflow/pkg/storage/objectstore"
	"github.com/your-org/fileflow/pkg/tracing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logr, err := logger.New(cfg.App.LogLevel, cfg.App.LogEncoding, cfg.App.Name, cfg.App.Environment)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	traceShutdown, err := tracing.Init(ctx, tracing.Config{
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRatio:    cfg.Tracing.SampleRatio,
		Attributes:     tracing.ParseAttributes(cfg.Tracing.ResourceAttr),
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
	})
	if err != nil {
		logr.Fatal("init tracing", zap.Error(err))
	}
	defer traceShutdown(context.Background()) //nolint:errcheck

	store, err := objectstore.New(ctx, objectstore.Config{
		Provider:       cfg.Storage.Provider,
		Endpoint:       cfg.Storage.Endpoint,
		PublicEndpoint: cfg.Storage.PublicEndpoint,
		Region:         cfg.Storage.Region,
		Bucket:         cfg.Storage.Bucket,
		AccessKey:      cfg.Storage.AccessKey,
		SecretKey:      cfg.Storage.SecretKey,
		UseSSL:         cfg.Storage.UseSSL,
		CreateBucket:   cfg.Storage.CreateBucket,
	})
	if err != nil {
		logr.Fatal("init object store", zap.Error(err))
	}

	defaults, err := ingestion.DefaultsFromConfig(cfg)
	if err != nil {
		logr.Fatal("load upload defaults", zap.Error(err))
	}

	recorder, err := metrics.New("fileflow", prometheus.DefaultRegisterer)
	if err != nil {
		logr.Fatal("init metrics", zap.Error(err))
	}

	params := ingestion.Params{
		Store:  store,
		Images: imageproc.New(defaults.Image),
		Transcoder: video.NewFFmpeg(video.Config{
			FFmpegPath:  cfg.Video.FFmpegPath,
			FFprobePath: cfg.Video.FFprobePath,
			Timeout:     cfg.Video.Timeout,
		}),
		Scanner:  scan.NewGate(),
		Metrics:  recorder,
		Logger:   logr.Named("ingestion"),
		Defaults: defaults,
		Retry:    ingestion.RetryPolicyFromConfig(cfg),
		TempDir:  cfg.Video.TempDir,
	}
	if cfg.Kafka.Enabled {
		params.Publisher = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.UploadTopic,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			Compression:  kafka.CompressionFromString(cfg.Kafka.CompressionCodec),
			RequiredAcks: kafkago.RequireAll,
			MaxAttempts:  cfg.Kafka.Retries,
			Logger:       logr,
		})
	}
	if !params.Transcoder.Available() {
		logr.Warn("ffmpeg not found, video uploads will be stored unprocessed", zap.String("ffmpeg", cfg.Video.FFmpegPath))
	}

	service := ingestion.NewService(params)
	handler := ingestion.NewHTTPHandler(service, logr, cfg.Upload.MaxSizeBytes, cfg.Upload.MultipartMemBytes)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	metricsServer := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           metrics.Handler(prometheus.DefaultGatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logr.Error("http server shutdown failed", zap.Error(err))
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logr.Error("metrics server shutdown failed", zap.Error(err))
		}
		if err := service.Close(shutdownCtx); err != nil {
			logr.Error("service shutdown failed", zap.Error(err))
		}
	}()

	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("metrics server failed", zap.Error(err))
		}
	}()

	logr.Info("ingestion service starting",
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("metrics_addr", cfg.Metrics.Addr),
		zap.String("storage", cfg.Storage.Provider),
		zap.Bool("kafka", cfg.Kafka.Enabled),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Fatal("http server failed", zap.Error(err))
	}
}
