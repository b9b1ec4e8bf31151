package vecprep

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/vecprep/groundtruth"
	"github.com/hupe1980/vecprep/split"
)

// Logger wraps slog.Logger with vecprep-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs to w.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithDataset adds a dataset field to the logger.
func (l *Logger) WithDataset(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dataset", name),
	}
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithPath adds a path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// LogLoad logs a dataset load.
func (l *Logger) LogLoad(ctx context.Context, name string, base, query, dim int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"dataset", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "dataset loaded",
			"dataset", name,
			"base", base,
			"query", query,
			"dimension", dim,
		)
	}
}

// LogWrite logs a committed output file.
func (l *Logger) LogWrite(ctx context.Context, path string, rows, cols int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "write failed",
			"path", path,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "file written",
			"path", path,
			"rows", rows,
			"cols", cols,
		)
	}
}

// LogProgress logs ground-truth progress.
func (l *Logger) LogProgress(ctx context.Context, p groundtruth.Progress) {
	l.InfoContext(ctx, "ground truth progress",
		"done", p.Done,
		"total", p.Total,
		"elapsed", p.Elapsed.Round(time.Millisecond),
	)
}

// LogGroundTruth logs a ground-truth computation.
func (l *Logger) LogGroundTruth(ctx context.Context, queries, k int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "ground truth failed",
			"queries", queries,
			"k", k,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "ground truth completed",
			"queries", queries,
			"k", k,
			"elapsed", elapsed.Round(time.Millisecond),
		)
	}
}

// LogSplit logs a split operation.
func (l *Logger) LogSplit(ctx context.Context, res split.Result, err error) {
	if err != nil {
		l.ErrorContext(ctx, "split failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "split completed",
			"rows", res.Rows,
			"train", res.Train,
			"test", res.Test,
			"train_file", res.Paths.TrainVectors,
			"test_file", res.Paths.TestVectors,
		)
	}
}

// LogPublish logs an upload of finished outputs.
func (l *Logger) LogPublish(ctx context.Context, files int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "publish failed",
			"files", files,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "outputs published",
			"files", files,
		)
	}
}
