package main

import (
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/vecprep"
	"github.com/hupe1980/vecprep/blobstore"
	"github.com/hupe1980/vecprep/blobstore/minio"
	"github.com/hupe1980/vecprep/blobstore/s3"
	"github.com/hupe1980/vecprep/distance"
	"github.com/hupe1980/vecprep/internal/promstats"
	"github.com/hupe1980/vecprep/internal/resource"
)

// app carries state shared by all subcommands.
type app struct {
	cfg    *Config
	stdout io.Writer
	stderr io.Writer

	logger *vecprep.Logger
	stats  *promstats.Collector
}

// setup validates the merged configuration and builds the logger and metrics
// collector. It runs before every subcommand.
func (a *app) setup() error {
	if err := ValidateConfig(a.cfg); err != nil {
		return err
	}

	level, _ := parseLevel(a.cfg.LogLevel)
	if a.cfg.LogFormat == "json" {
		a.logger = vecprep.NewJSONLogger(a.stderr, level)
	} else {
		a.logger = vecprep.NewTextLogger(a.stderr, level)
	}

	if a.cfg.MetricsFile != "" {
		a.stats = promstats.New()
	}
	return nil
}

// finish writes the metrics textfile, if configured.
func (a *app) finish() error {
	if a.stats == nil {
		return nil
	}
	if err := a.stats.WriteTextfile(a.cfg.MetricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// options translates the configuration into facade options.
func (a *app) options(ctx context.Context) ([]vecprep.Option, error) {
	metric, err := distance.ParseMetric(a.cfg.Metric)
	if err != nil {
		return nil, err
	}

	opts := []vecprep.Option{
		vecprep.WithLogger(a.logger),
		vecprep.WithMetric(metric),
		vecprep.WithBatchSize(a.cfg.BatchSize),
		vecprep.WithProgress(nil, a.cfg.ProgressInterval),
	}
	if a.cfg.Workers > 0 {
		opts = append(opts, vecprep.WithWorkers(a.cfg.Workers))
	}
	if a.stats != nil {
		opts = append(opts, vecprep.WithMetricsCollector(a.stats))
	}
	if a.cfg.MaxMemory > 0 || a.cfg.IOLimit > 0 {
		opts = append(opts, vecprep.WithResourceController(resource.NewController(resource.Config{
			MemoryLimitBytes:   a.cfg.MaxMemory,
			IOLimitBytesPerSec: a.cfg.IOLimit,
		})))
	}

	store, err := a.publishStore(ctx)
	if err != nil {
		return nil, err
	}
	if store != nil {
		opts = append(opts, vecprep.WithPublish(store, ""))
	}

	return opts, nil
}

func (a *app) publishStore(ctx context.Context) (blobstore.Store, error) {
	t, err := ParsePublishTarget(a.cfg.Publish)
	if err != nil {
		return nil, err
	}

	switch t.Scheme {
	case "":
		return nil, nil
	case "file":
		return blobstore.NewLocalStore(t.Dir)
	case "s3":
		return s3.New(ctx, t.Bucket, t.Prefix, a.cfg.S3Region)
	case "minio":
		return minio.New(minio.Config{
			Endpoint:  a.cfg.MinIOEndpoint,
			AccessKey: a.cfg.MinIOAccessKey,
			SecretKey: a.cfg.MinIOSecretKey,
			Secure:    a.cfg.MinIOSecure,
			Bucket:    t.Bucket,
			Prefix:    t.Prefix,
		})
	default:
		return nil, ErrInvalidPublishTarget
	}
}
