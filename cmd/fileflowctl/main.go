package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/your-org/fileflow/internal/ingestion"
	"github.com/your-org/fileflow/internal/video"
	"github.com/your-org/fileflow/pkg/config"
	"github.com/your-org/fileflow/pkg/logger"
	"github.com/your-org/fileflow/pkg/storage/objectstore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(serviceFromEnv).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// serviceFromEnv builds a Service from the same environment as the ingestion server.
func serviceFromEnv(ctx context.Context, verbose bool) (*ingestion.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logr := zap.NewNop()
	if verbose {
		if logr, err = logger.New("debug", "console", "fileflowctl", cfg.App.Environment); err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}

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
		return nil, fmt.Errorf("init object store: %w", err)
	}

	defaults, err := ingestion.DefaultsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	return ingestion.NewService(ingestion.Params{
		Store: store,
		Transcoder: video.NewFFmpeg(video.Config{
			FFmpegPath:  cfg.Video.FFmpegPath,
			FFprobePath: cfg.Video.FFprobePath,
			Timeout:     cfg.Video.Timeout,
		}),
		Logger:   logr,
		Defaults: defaults,
		Retry:    ingestion.RetryPolicyFromConfig(cfg),
		TempDir:  cfg.Video.TempDir,
	}), nil
}
