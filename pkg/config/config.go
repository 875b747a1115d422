package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures the full runtime configuration for a fileflow service.
type Config struct {
	App     AppConfig
	HTTP    HTTPConfig
	Kafka   KafkaConfig
	Storage StorageConfig
	Tracing TracingConfig
	Metrics MetricsConfig
	Upload  UploadConfig
	URL     URLConfig
	Retry   RetryConfig
	Image   ImageConfig
	Video   VideoConfig
}

type AppConfig struct {
	Name        string `env:"APP_NAME" envDefault:"fileflow-ingestion"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	Version     string `env:"APP_VERSION" envDefault:"0.1.0"`
	LogLevel    string `env:"APP_LOG_LEVEL" envDefault:"info"`
	LogEncoding string `env:"APP_LOG_ENCODING" envDefault:"json"`
}

type HTTPConfig struct {
	Addr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
}

type KafkaConfig struct {
	Enabled          bool          `env:"KAFKA_ENABLED" envDefault:"false"`
	Brokers          []string      `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	UploadTopic      string        `env:"KAFKA_UPLOAD_TOPIC" envDefault:"fileflow.uploads"`
	Retries          int           `env:"KAFKA_RETRIES" envDefault:"3"`
	CompressionCodec string        `env:"KAFKA_COMPRESSION_CODEC" envDefault:"snappy"`
	BatchSize        int           `env:"KAFKA_BATCH_SIZE" envDefault:"100"`
	BatchTimeout     time.Duration `env:"KAFKA_BATCH_TIMEOUT" envDefault:"1s"`
}

type StorageConfig struct {
	Provider       string `env:"STORAGE_PROVIDER" envDefault:"minio"`
	Endpoint       string `env:"STORAGE_ENDPOINT" envDefault:"http://localhost:9000"`
	PublicEndpoint string `env:"STORAGE_PUBLIC_ENDPOINT"`
	Region         string `env:"STORAGE_REGION" envDefault:"us-east-1"`
	Bucket         string `env:"STORAGE_BUCKET" envDefault:"fileflow"`
	AccessKey      string `env:"STORAGE_ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey      string `env:"STORAGE_SECRET_KEY" envDefault:"minioadmin"`
	UseSSL         bool   `env:"STORAGE_USE_SSL" envDefault:"false"`
	CreateBucket   bool   `env:"STORAGE_CREATE_BUCKET" envDefault:"true"`
}

type TracingConfig struct {
	Endpoint     string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure     bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	SampleRatio  float64 `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"1.0"`
	ResourceAttr string  `env:"OTEL_RESOURCE_ATTRIBUTES" envDefault:"service.namespace=fileflow"`
}

type MetricsConfig struct {
	Addr string `env:"METRICS_ADDR" envDefault:":9102"`
}

type UploadConfig struct {
	MaxSizeBytes      int64  `env:"UPLOAD_MAX_SIZE_BYTES" envDefault:"10737418240"`
	MultipartMemBytes int64  `env:"UPLOAD_MULTIPART_MEM_BYTES" envDefault:"52428800"`
	Naming            string `env:"UPLOAD_NAMING" envDefault:"hash"`
	Scan              bool   `env:"UPLOAD_SCAN" envDefault:"true"`
	PreserveStructure bool   `env:"UPLOAD_PRESERVE_STRUCTURE" envDefault:"true"`
	TypesFile         string `env:"UPLOAD_TYPES_FILE"`
	ThumbnailDir      string `env:"UPLOAD_THUMBNAIL_DIR" envDefault:"thumbnails"`
	ThumbnailSuffix   string `env:"UPLOAD_THUMBNAIL_SUFFIX" envDefault:"-thumb"`
	WatermarkDir      string `env:"UPLOAD_WATERMARK_DIR"`
}

type URLConfig struct {
	Signed            bool          `env:"URL_SIGNED" envDefault:"false"`
	DefaultExpiration time.Duration `env:"URL_DEFAULT_EXPIRATION" envDefault:"1h"`
	MaxExpiration     time.Duration `env:"URL_MAX_EXPIRATION" envDefault:"168h"`
}

type RetryConfig struct {
	Attempts     int           `env:"EXISTS_RETRY_ATTEMPTS" envDefault:"3"`
	InitialDelay time.Duration `env:"EXISTS_RETRY_INITIAL_DELAY" envDefault:"100ms"`
	Multiplier   float64       `env:"EXISTS_RETRY_MULTIPLIER" envDefault:"2"`
}

type ImageConfig struct {
	Quality             int   `env:"IMAGE_QUALITY" envDefault:"90"`
	WebMaxWidth         int   `env:"IMAGE_WEB_MAX_WIDTH" envDefault:"1920"`
	WebMaxHeight        int   `env:"IMAGE_WEB_MAX_HEIGHT" envDefault:"1080"`
	WebQuality          int   `env:"IMAGE_WEB_QUALITY" envDefault:"82"`
	CompressQuality     int   `env:"IMAGE_COMPRESS_QUALITY" envDefault:"75"`
	CompressMinQuality  int   `env:"IMAGE_COMPRESS_MIN_QUALITY" envDefault:"30"`
	CompressMaxQuality  int   `env:"IMAGE_COMPRESS_MAX_QUALITY" envDefault:"90"`
	CompressTargetBytes int64 `env:"IMAGE_COMPRESS_TARGET_BYTES" envDefault:"0"`
	ThumbnailWidth      int   `env:"IMAGE_THUMBNAIL_WIDTH" envDefault:"300"`
	ThumbnailHeight     int   `env:"IMAGE_THUMBNAIL_HEIGHT" envDefault:"300"`
	ThumbnailQuality    int   `env:"IMAGE_THUMBNAIL_QUALITY" envDefault:"80"`
}

type VideoConfig struct {
	FFmpegPath  string        `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	FFprobePath string        `env:"FFPROBE_PATH" envDefault:"ffprobe"`
	Timeout     time.Duration `env:"FFMPEG_TIMEOUT" envDefault:"10m"`
	TempDir     string        `env:"VIDEO_TEMP_DIR"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
