// Package promstats records vecprep operations as Prometheus metrics.
//
// A batch tool has no scrape endpoint, so the collected metrics are written
// to a node_exporter textfile once the command finishes.
package promstats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vecprep"

// Collector implements vecprep.MetricsCollector on a private registry.
type Collector struct {
	reg *prometheus.Registry

	opLatency      *prometheus.HistogramVec
	operations     *prometheus.CounterVec
	rows           *prometheus.CounterVec
	writtenBytes   prometheus.Counter
	publishedFiles prometheus.Counter
	lastSuccess    *prometheus.GaugeVec
}

// New creates a Collector with its own registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Collector{
		reg: reg,
		opLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of vecprep operations",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 12),
		}, []string{"operation"}),
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operations by outcome",
		}, []string{"operation", "status"}),
		rows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Vectors processed by operation",
		}, []string{"operation"}),
		writtenBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "written_bytes_total",
			Help:      "Bytes committed to output files",
		}),
		publishedFiles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_files_total",
			Help:      "Files uploaded to a blob store",
		}),
		lastSuccess: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful operation",
		}, []string{"operation"}),
	}
}

// Registry returns the registry holding all collector metrics.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// WriteTextfile writes the current metrics to path in the text exposition
// format. The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.reg)
}

func (c *Collector) observe(op string, d time.Duration, err error) bool {
	c.opLatency.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		c.operations.WithLabelValues(op, "error").Inc()
		return false
	}
	c.operations.WithLabelValues(op, "ok").Inc()
	c.lastSuccess.WithLabelValues(op).SetToCurrentTime()
	return true
}

// RecordLoad implements vecprep.MetricsCollector.
func (c *Collector) RecordLoad(_ string, rows int, d time.Duration, err error) {
	if c.observe("load", d, err) {
		c.rows.WithLabelValues("load").Add(float64(rows))
	}
}

// RecordWrite implements vecprep.MetricsCollector.
func (c *Collector) RecordWrite(bytes int64, d time.Duration, err error) {
	if c.observe("write", d, err) {
		c.writtenBytes.Add(float64(bytes))
	}
}

// RecordGroundTruth implements vecprep.MetricsCollector.
func (c *Collector) RecordGroundTruth(queries, _ int, d time.Duration, err error) {
	if c.observe("groundtruth", d, err) {
		c.rows.WithLabelValues("groundtruth").Add(float64(queries))
	}
}

// RecordSplit implements vecprep.MetricsCollector.
func (c *Collector) RecordSplit(rows int, d time.Duration, err error) {
	if c.observe("split", d, err) {
		c.rows.WithLabelValues("split").Add(float64(rows))
	}
}

// RecordPublish implements vecprep.MetricsCollector.
func (c *Collector) RecordPublish(files int, d time.Duration, err error) {
	if c.observe("publish", d, err) {
		c.publishedFiles.Add(float64(files))
	}
}
