package vecprep

import (
	"runtime"
	"time"

	"github.com/hupe1980/vecprep/blobstore"
	"github.com/hupe1980/vecprep/distance"
	"github.com/hupe1980/vecprep/groundtruth"
	"github.com/hupe1980/vecprep/internal/fs"
	"github.com/hupe1980/vecprep/internal/resource"
	"github.com/hupe1980/vecprep/vecfile"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	metric           distance.Metric
	workers          int
	batchSize        int
	progressInterval time.Duration
	onProgress       func(groundtruth.Progress)
	normalize        bool
	epsilon          float64
	filterByLabel    bool
	writeDistances   bool
	compression      vecfile.Compression
	mmap             bool
	store            blobstore.Store
	publishPrefix    string
	resources        *resource.Controller
	fs               fs.FileSystem
}

// Option configures Prepare, ComputeGroundTruth and Split.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		metric:           distance.MetricL2,
		workers:          runtime.GOMAXPROCS(0),
		batchSize:        groundtruth.DefaultBatchSize,
		progressInterval: groundtruth.DefaultProgressInterval,
		epsilon:          distance.DefaultEpsilon,
		mmap:             true,
		fs:               fs.Default,
	}
}

func applyOptions(optFns []Option) options {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics sink.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithMetric selects the ground-truth distance metric. Default: L2.
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithWorkers bounds the number of concurrent ground-truth blocks.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithBatchSize sets the number of queries per ground-truth block.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

// WithProgress registers a progress callback. Progress is always logged at
// info level; fn is additionally called with every report.
func WithProgress(fn func(groundtruth.Progress), interval time.Duration) Option {
	return func(o *options) {
		o.onProgress = fn
		if interval > 0 {
			o.progressInterval = interval
		}
	}
}

// WithNormalize L2-normalizes base and query vectors before they are written:
// every row is divided by its L2 norm plus eps, so zero rows stay zero.
func WithNormalize(eps float64) Option {
	return func(o *options) {
		o.normalize = true
		if eps > 0 {
			o.epsilon = eps
		}
	}
}

// WithLabelFilter restricts each query's neighbors to base rows that share
// its label.
func WithLabelFilter() Option {
	return func(o *options) {
		o.filterByLabel = true
	}
}

// WithDistances additionally writes the float32 distance matrix next to the
// ground-truth indices.
func WithDistances() Option {
	return func(o *options) {
		o.writeDistances = true
	}
}

// WithCompression wraps the vector outputs of Prepare in c. File names get
// the matching suffix.
func WithCompression(c vecfile.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithoutMmap makes ComputeGroundTruth decode the base file into memory
// instead of mapping it.
func WithoutMmap() Option {
	return func(o *options) {
		o.mmap = false
	}
}

// WithPublish uploads every committed output to store. prefix is prepended
// to the object names.
func WithPublish(store blobstore.Store, prefix string) Option {
	return func(o *options) {
		o.store = store
		o.publishPrefix = prefix
	}
}

// WithResourceController bounds memory used by ground-truth blocks and the
// read bandwidth used while publishing.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithFileSystem routes staged output files, their commit renames and
// rollback through fsys. Default: the local file system.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fs = fsys
		}
	}
}

func (o *options) groundTruthOptions() []groundtruth.Option {
	opts := []groundtruth.Option{
		groundtruth.WithMetric(o.metric),
		groundtruth.WithWorkers(o.workers),
		groundtruth.WithBatchSize(o.batchSize),
	}
	if o.resources != nil {
		opts = append(opts, groundtruth.WithResourceController(o.resources))
	}
	return opts
}
