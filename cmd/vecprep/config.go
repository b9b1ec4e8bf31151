package main

import (
	"errors"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/hupe1980/vecprep/distance"
	"github.com/hupe1980/vecprep/groundtruth"
)

// envPrefix is the prefix of every environment variable, e.g. VECPREP_K.
const envPrefix = "VECPREP"

// Config holds settings shared by all commands. Values come from defaults,
// then a .env file, then VECPREP_* variables, then command-line flags.
type Config struct {
	LogFormat        string        `envconfig:"LOG_FORMAT"`
	LogLevel         string        `envconfig:"LOG_LEVEL"`
	Workers          int           `envconfig:"WORKERS"`
	BatchSize        int           `envconfig:"BATCH_SIZE"`
	Metric           string        `envconfig:"METRIC"`
	K                int           `envconfig:"K"`
	ProgressInterval time.Duration `envconfig:"PROGRESS_INTERVAL"`
	MaxMemory        int64         `envconfig:"MAX_MEMORY"`
	IOLimit          int64         `envconfig:"IO_LIMIT"`
	MetricsFile      string        `envconfig:"METRICS_FILE"`

	// Publish is a directory, s3://bucket/prefix or minio://bucket/prefix.
	Publish        string `envconfig:"PUBLISH"`
	S3Region       string `envconfig:"S3_REGION"`
	MinIOEndpoint  string `envconfig:"MINIO_ENDPOINT"`
	MinIOAccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `envconfig:"MINIO_SECRET_KEY"`
	MinIOSecure    bool   `envconfig:"MINIO_SECURE"`
}

// Config validation errors
var (
	ErrInvalidLogFormat        = errors.New("log_format must be 'json' or 'text'")
	ErrInvalidLogLevel         = errors.New("log_level must be debug, info, warn, or error")
	ErrInvalidWorkers          = errors.New("workers cannot be negative")
	ErrInvalidBatchSize        = errors.New("batch_size must be positive")
	ErrInvalidMetric           = errors.New("metric must be l2, sql2, cosine or l1")
	ErrInvalidK                = errors.New("k must be positive")
	ErrInvalidProgressInterval = errors.New("progress_interval must be positive")
	ErrInvalidMaxMemory        = errors.New("max_memory cannot be negative")
	ErrInvalidIOLimit          = errors.New("io_limit cannot be negative")
	ErrInvalidPublishTarget    = errors.New("publish must be a directory, s3://bucket[/prefix] or minio://bucket[/prefix]")
	ErrMissingMinIOEndpoint    = errors.New("minio_endpoint is required for minio:// targets")
)

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		LogFormat:        "text",
		LogLevel:         "info",
		Workers:          0, // GOMAXPROCS
		BatchSize:        groundtruth.DefaultBatchSize,
		Metric:           "l2",
		K:                100,
		ProgressInterval: groundtruth.DefaultProgressInterval,
	}
}

// LoadConfig applies envFile (if it exists) and VECPREP_* variables on top of
// DefaultConfig. Variables already set in the environment win over envFile.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Config{}, err
			}
		}
	}

	cfg := DefaultConfig()
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidateConfig validates the configuration and returns an error if invalid
func ValidateConfig(cfg *Config) error {
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return ErrInvalidLogFormat
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return ErrInvalidLogLevel
	}
	if cfg.Workers < 0 {
		return ErrInvalidWorkers
	}
	if cfg.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if _, err := distance.ParseMetric(cfg.Metric); err != nil {
		return ErrInvalidMetric
	}
	if cfg.K <= 0 {
		return ErrInvalidK
	}
	if cfg.ProgressInterval <= 0 {
		return ErrInvalidProgressInterval
	}
	if cfg.MaxMemory < 0 {
		return ErrInvalidMaxMemory
	}
	if cfg.IOLimit < 0 {
		return ErrInvalidIOLimit
	}
	t, err := ParsePublishTarget(cfg.Publish)
	if err != nil {
		return err
	}
	if t.Scheme == "minio" && cfg.MinIOEndpoint == "" {
		return ErrMissingMinIOEndpoint
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(s))
	return l, err
}

// PublishTarget is a parsed Config.Publish value.
type PublishTarget struct {
	// Scheme is "", "file", "s3" or "minio". Empty means no publishing.
	Scheme string
	Bucket string
	Prefix string
	// Dir is the destination directory for file targets.
	Dir string
}

// ParsePublishTarget parses a directory path or an s3:// or minio:// URL.
func ParsePublishTarget(s string) (PublishTarget, error) {
	if s == "" {
		return PublishTarget{}, nil
	}
	if !strings.Contains(s, "://") {
		return PublishTarget{Scheme: "file", Dir: s}, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return PublishTarget{}, ErrInvalidPublishTarget
	}

	switch u.Scheme {
	case "file":
		if u.Path == "" {
			return PublishTarget{}, ErrInvalidPublishTarget
		}
		return PublishTarget{Scheme: "file", Dir: u.Path}, nil
	case "s3", "minio":
		if u.Host == "" {
			return PublishTarget{}, ErrInvalidPublishTarget
		}
		prefix := strings.TrimPrefix(u.Path, "/")
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		return PublishTarget{Scheme: u.Scheme, Bucket: u.Host, Prefix: prefix}, nil
	default:
		return PublishTarget{}, ErrInvalidPublishTarget
	}
}
