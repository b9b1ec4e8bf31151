package vecprep

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    gtHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordGroundTruth(queries, k int, d time.Duration, err error) {
//	    p.gtHistogram.Observe(d.Seconds())
//	}
type MetricsCollector interface {
	// RecordLoad is called after a dataset has been loaded.
	// rows is the number of base plus query vectors.
	RecordLoad(dataset string, rows int, duration time.Duration, err error)

	// RecordWrite is called after an output file has been committed.
	RecordWrite(bytes int64, duration time.Duration, err error)

	// RecordGroundTruth is called after each ground-truth computation.
	RecordGroundTruth(queries, k int, duration time.Duration, err error)

	// RecordSplit is called after each split operation.
	RecordSplit(rows int, duration time.Duration, err error)

	// RecordPublish is called after finished outputs were uploaded.
	RecordPublish(files int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(string, int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordWrite(int64, time.Duration, error)          {}
func (NoopMetricsCollector) RecordGroundTruth(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSplit(int, time.Duration, error)            {}
func (NoopMetricsCollector) RecordPublish(int, time.Duration, error)          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LoadCount             atomic.Int64
	LoadErrors            atomic.Int64
	LoadedRows            atomic.Int64
	WriteCount            atomic.Int64
	WriteErrors           atomic.Int64
	WrittenBytes          atomic.Int64
	GroundTruthCount      atomic.Int64
	GroundTruthErrors     atomic.Int64
	GroundTruthQueries    atomic.Int64
	GroundTruthTotalNanos atomic.Int64
	SplitCount            atomic.Int64
	SplitErrors           atomic.Int64
	SplitRows             atomic.Int64
	PublishCount          atomic.Int64
	PublishErrors         atomic.Int64
	PublishedFiles        atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_ string, rows int, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadedRows.Add(int64(rows))
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(bytes int64, _ time.Duration, err error) {
	b.WriteCount.Add(1)
	if err != nil {
		b.WriteErrors.Add(1)
		return
	}
	b.WrittenBytes.Add(bytes)
}

// RecordGroundTruth implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGroundTruth(queries, _ int, duration time.Duration, err error) {
	b.GroundTruthCount.Add(1)
	b.GroundTruthTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.GroundTruthErrors.Add(1)
		return
	}
	b.GroundTruthQueries.Add(int64(queries))
}

// RecordSplit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSplit(rows int, _ time.Duration, err error) {
	b.SplitCount.Add(1)
	if err != nil {
		b.SplitErrors.Add(1)
		return
	}
	b.SplitRows.Add(int64(rows))
}

// RecordPublish implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPublish(files int, _ time.Duration, err error) {
	b.PublishCount.Add(1)
	if err != nil {
		b.PublishErrors.Add(1)
		return
	}
	b.PublishedFiles.Add(int64(files))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:           b.LoadCount.Load(),
		LoadErrors:          b.LoadErrors.Load(),
		LoadedRows:          b.LoadedRows.Load(),
		WriteCount:          b.WriteCount.Load(),
		WriteErrors:         b.WriteErrors.Load(),
		WrittenBytes:        b.WrittenBytes.Load(),
		GroundTruthCount:    b.GroundTruthCount.Load(),
		GroundTruthErrors:   b.GroundTruthErrors.Load(),
		GroundTruthQueries:  b.GroundTruthQueries.Load(),
		GroundTruthAvgNanos: b.getAvgGroundTruthNanos(),
		SplitCount:          b.SplitCount.Load(),
		SplitErrors:         b.SplitErrors.Load(),
		SplitRows:           b.SplitRows.Load(),
		PublishCount:        b.PublishCount.Load(),
		PublishErrors:       b.PublishErrors.Load(),
		PublishedFiles:      b.PublishedFiles.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgGroundTruthNanos() int64 {
	count := b.GroundTruthCount.Load()
	if count == 0 {
		return 0
	}
	return b.GroundTruthTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount           int64
	LoadErrors          int64
	LoadedRows          int64
	WriteCount          int64
	WriteErrors         int64
	WrittenBytes        int64
	GroundTruthCount    int64
	GroundTruthErrors   int64
	GroundTruthQueries  int64
	GroundTruthAvgNanos int64
	SplitCount          int64
	SplitErrors         int64
	SplitRows           int64
	PublishCount        int64
	PublishErrors       int64
	PublishedFiles      int64
}
