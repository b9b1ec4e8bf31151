package groundtruth

import (
	"runtime"
	"time"

	"github.com/hupe1980/vecprep/distance"
	"github.com/hupe1980/vecprep/internal/resource"
	"github.com/hupe1980/vecprep/labels"
)

// DefaultBatchSize is the number of queries per block.
const DefaultBatchSize = 64

// DefaultProgressInterval is the minimum time between progress reports.
const DefaultProgressInterval = 2 * time.Second

// Progress reports how many queries are done.
type Progress struct {
	Done    int
	Total   int
	Elapsed time.Duration
}

// Options configures Compute.
type Options struct {
	Metric           distance.Metric
	DistanceFunc     distance.Func
	Workers          int
	BatchSize        int
	BaseLabels       labels.Set
	QueryLabels      labels.Set
	OnProgress       func(Progress)
	ProgressInterval time.Duration
	Resources        *resource.Controller
}

// Option is a functional option for Compute.
type Option func(*Options)

// DefaultOptions returns L2 with one worker per CPU.
func DefaultOptions() Options {
	return Options{
		Metric:           distance.MetricL2,
		Workers:          runtime.GOMAXPROCS(0),
		BatchSize:        DefaultBatchSize,
		ProgressInterval: DefaultProgressInterval,
	}
}

// WithMetric selects a built-in metric.
func WithMetric(m distance.Metric) Option {
	return func(o *Options) {
		o.Metric = m
	}
}

// WithDistanceFunc substitutes a custom distance. It must be symmetric and
// non-negative; it takes precedence over WithMetric.
func WithDistanceFunc(fn distance.Func) Option {
	return func(o *Options) {
		o.DistanceFunc = fn
	}
}

// WithWorkers sets the number of concurrent blocks. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(o *Options) {
		o.Workers = n
	}
}

// WithBatchSize sets the number of queries per block.
func WithBatchSize(n int) Option {
	return func(o *Options) {
		o.BatchSize = n
	}
}

// WithFilter restricts each query to base rows carrying the same label.
// Rows with fewer than K candidates are padded with Padding and +Inf.
func WithFilter(base, queries labels.Set) Option {
	return func(o *Options) {
		o.BaseLabels = base
		o.QueryLabels = queries
	}
}

// WithProgress installs a progress callback invoked at most once per
// interval, plus once on completion.
func WithProgress(fn func(Progress), interval time.Duration) Option {
	return func(o *Options) {
		o.OnProgress = fn
		if interval > 0 {
			o.ProgressInterval = interval
		}
	}
}

// WithResourceController bounds the memory held by in-flight blocks. Each
// block is charged for its heap and for the BatchSize result rows it writes.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *Options) {
		o.Resources = rc
	}
}
