package groundtruth

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/vecprep/distance"
	"github.com/hupe1980/vecprep/errs"
	"github.com/hupe1980/vecprep/internal/queue"
	"github.com/hupe1980/vecprep/labels"
	"github.com/hupe1980/vecprep/vecfile"
)

const (
	// itemBytes is the in-memory size of one heap entry.
	itemBytes = 16
	// resultBytes is one neighbor in the result: a uint32 index and a
	// float32 distance.
	resultBytes = 8
)

// blockBytes is the memory charged for a block of rows queries: the block's
// heap and drain buffer plus the result rows it fills.
func blockBytes(k, rows int) int64 {
	return int64(2*k)*itemBytes + int64(rows)*int64(k)*resultBytes
}

// Compute returns the k nearest base rows of every query.
//
// k must be in [1, N]. An empty base or query set yields an empty matrix
// without error: with no base rows every query gets a zero-width row, with no
// queries the result has no rows.
func Compute(ctx context.Context, base, queries vecfile.Matrix[float32], k int, optFns ...Option) (NeighborMatrix, error) {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := base.Validate(); err != nil {
		return NeighborMatrix{}, err
	}
	if err := queries.Validate(); err != nil {
		return NeighborMatrix{}, err
	}

	n, q := base.Rows, queries.Rows
	if int64(n) > math.MaxUint32 {
		return NeighborMatrix{}, errs.Validation("ground truth", "%d base rows exceed uint32 indices", n)
	}

	var filter *labels.Index
	if opts.BaseLabels != nil || opts.QueryLabels != nil {
		if len(opts.BaseLabels) != n || len(opts.QueryLabels) != q {
			return NeighborMatrix{}, errs.Validation("ground truth", "filter labels %d/%d do not match base/query rows %d/%d",
				len(opts.BaseLabels), len(opts.QueryLabels), n, q)
		}
		var err error
		if filter, err = labels.NewIndex(opts.BaseLabels); err != nil {
			return NeighborMatrix{}, err
		}
	}

	if n == 0 {
		return NeighborMatrix{Queries: q}, nil
	}
	if k <= 0 || k > n {
		if q == 0 {
			return NeighborMatrix{}, nil
		}
		return NeighborMatrix{}, errs.Validation("ground truth", "k=%d outside [1, %d]", k, n)
	}
	if q == 0 {
		return NeighborMatrix{K: k}, nil
	}
	if base.Cols != queries.Cols {
		return NeighborMatrix{}, errs.Validation("ground truth", "base dimension %d does not match query dimension %d", base.Cols, queries.Cols)
	}

	dist := opts.DistanceFunc
	if dist == nil {
		var err error
		if dist, err = distance.Provider(opts.Metric); err != nil {
			return NeighborMatrix{}, errs.Validation("ground truth", "%v", err)
		}
	}

	e := &engine{
		base:    base,
		queries: queries,
		k:       k,
		dist:    dist,
		filter:  filter,
		qLabels: opts.QueryLabels,
		out: NeighborMatrix{
			Queries:   q,
			K:         k,
			Indices:   make([]uint32, q*k),
			Distances: make([]float32, q*k),
		},
	}
	if err := e.run(ctx, opts); err != nil {
		return NeighborMatrix{}, err
	}
	return e.out, nil
}

type engine struct {
	base    vecfile.Matrix[float32]
	queries vecfile.Matrix[float32]
	k       int
	dist    distance.Func
	filter  *labels.Index
	qLabels labels.Set
	out     NeighborMatrix
}

func (e *engine) run(ctx context.Context, opts Options) error {
	workers := max(opts.Workers, 1)
	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	start := time.Now()
	var done atomic.Int64
	report := func() {}
	if opts.OnProgress != nil {
		sometimes := rate.Sometimes{Interval: opts.ProgressInterval}
		report = func() {
			sometimes.Do(func() {
				opts.OnProgress(Progress{Done: int(done.Load()), Total: e.out.Queries, Elapsed: time.Since(start)})
			})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for from := 0; from < e.out.Queries; from += batch {
		if gctx.Err() != nil {
			break
		}
		to := min(from+batch, e.out.Queries)
		g.Go(func() error {
			size := blockBytes(e.k, to-from)
			if err := opts.Resources.AcquireMemory(gctx, size); err != nil {
				return err
			}
			defer opts.Resources.ReleaseMemory(size)

			e.searchBlock(from, to)
			done.Add(int64(to - from))
			report()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if opts.OnProgress != nil {
		opts.OnProgress(Progress{Done: e.out.Queries, Total: e.out.Queries, Elapsed: time.Since(start)})
	}
	return nil
}

// searchBlock evaluates queries [from, to) with private buffers.
func (e *engine) searchBlock(from, to int) {
	top := queue.NewTopK(e.k)
	buf := make([]queue.Item, e.k)

	for qi := from; qi < to; qi++ {
		top.Reset()
		qv := e.queries.Row(qi)

		if e.filter == nil {
			for j := range e.base.Rows {
				top.Push(queue.Item{Index: uint32(j), Distance: e.distance(qv, j)})
			}
		} else if bm := e.filter.Bitmap(e.qLabels[qi]); bm != nil {
			e.scanBitmap(top, qv, bm)
		}

		items := top.Drain(buf)
		ids, ds := e.out.Row(qi), e.out.DistanceRow(qi)
		for i := range ids {
			if i < len(items) {
				ids[i] = items[i].Index
				ds[i] = float32(items[i].Distance)
			} else {
				ids[i] = Padding
				ds[i] = float32(math.Inf(1))
			}
		}
	}
}

func (e *engine) scanBitmap(top *queue.TopK, qv []float32, bm *roaring.Bitmap) {
	it := bm.Iterator()
	for it.HasNext() {
		j := it.Next()
		top.Push(queue.Item{Index: j, Distance: e.distance(qv, int(j))})
	}
}

// distance maps NaN to +Inf so that rows with NaN components rank last
// instead of corrupting the heap order.
func (e *engine) distance(qv []float32, row int) float64 {
	d := e.dist(qv, e.base.Row(row))
	if math.IsNaN(d) {
		return math.Inf(1)
	}
	return d
}
