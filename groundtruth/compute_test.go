package groundtruth

import (
	"context"
	"math"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecprep/distance"
	"github.com/hupe1980/vecprep/errs"
	"github.com/hupe1980/vecprep/internal/resource"
	"github.com/hupe1980/vecprep/labels"
	"github.com/hupe1980/vecprep/testutil"
	"github.com/hupe1980/vecprep/vecfile"
)

func matrix(t *testing.T, rows [][]float32) vecfile.Matrix[float32] {
	t.Helper()
	m, err := vecfile.FromRows(rows)
	require.NoError(t, err)
	return m
}

func TestComputeSimple(t *testing.T) {
	base := matrix(t, [][]float32{{0, 0}, {1, 0}, {0, 1}, {5, 5}})
	query := matrix(t, [][]float32{{0, 0}})

	nm, err := Compute(context.Background(), base, query, 2)
	require.NoError(t, err)

	assert.Equal(t, 1, nm.Queries)
	assert.Equal(t, 2, nm.K)
	// Rows 1 and 2 are both at distance 1; the lower index wins.
	assert.Equal(t, []uint32{0, 1}, nm.Row(0))
	assert.Equal(t, []float32{0, 1}, nm.DistanceRow(0))
}

func TestComputeSquareCenterTieBreak(t *testing.T) {
	base := matrix(t, [][]float32{{1, 1}, {-1, 1}, {-1, -1}, {1, -1}, {3, 3}})
	query := matrix(t, [][]float32{{0, 0}})

	nm, err := Compute(context.Background(), base, query, 5)
	require.NoError(t, err)

	assert.Equal(t, []uint32{0, 1, 2, 3, 4}, nm.Row(0))
	d := nm.DistanceRow(0)
	for i := 0; i < 4; i++ {
		assert.InDelta(t, math.Sqrt2, float64(d[i]), 1e-6)
	}
	assert.InDelta(t, 3*math.Sqrt2, float64(d[4]), 1e-5)
}

func TestComputeSelfConsistency(t *testing.T) {
	rng := testutil.NewRNG(42)
	base := rng.UniformMatrix(200, 16)

	nm, err := Compute(context.Background(), base, base, 1)
	require.NoError(t, err)

	for i := range base.Rows {
		assert.Equal(t, uint32(i), nm.Row(i)[0], "row %d", i)
		assert.Zero(t, nm.DistanceRow(i)[0])
	}
}

func TestComputeKEqualsN(t *testing.T) {
	rng := testutil.NewRNG(7)
	base := rng.UniformMatrix(50, 8)
	queries := rng.UniformMatrix(5, 8)

	nm, err := Compute(context.Background(), base, queries, 50)
	require.NoError(t, err)

	for i := range queries.Rows {
		row := append([]uint32(nil), nm.Row(i)...)
		sort.Slice(row, func(a, b int) bool { return row[a] < row[b] })
		for j, id := range row {
			assert.Equal(t, uint32(j), id)
		}
		d := nm.DistanceRow(i)
		assert.True(t, sort.SliceIsSorted(d, func(a, b int) bool { return d[a] < d[b] }))
	}
}

func TestComputeValidation(t *testing.T) {
	base := matrix(t, [][]float32{{0, 0}, {1, 1}})
	query := matrix(t, [][]float32{{0, 0}})

	tests := []struct {
		name    string
		base    vecfile.Matrix[float32]
		query   vecfile.Matrix[float32]
		k       int
		options []Option
	}{
		{"k exceeds n", base, query, 3, nil},
		{"k zero", base, query, 0, nil},
		{"k negative", base, query, -1, nil},
		{"dimension mismatch", base, matrix(t, [][]float32{{0, 0, 0}}), 1, nil},
		{"bad shape", vecfile.Matrix[float32]{Rows: 2, Cols: 2, Data: []float32{1}}, query, 1, nil},
		{"unknown metric", base, query, 1, []Option{WithMetric(distance.Metric(99))}},
		{"filter length", base, query, 1, []Option{WithFilter(labels.Set{"a"}, labels.Set{"a"})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(context.Background(), tt.base, tt.query, tt.k, tt.options...)
			assert.ErrorIs(t, err, errs.ErrValidation)
		})
	}
}

func TestComputeEmpty(t *testing.T) {
	query := matrix(t, [][]float32{{0, 0}, {1, 1}})
	nm, err := Compute(context.Background(), vecfile.Matrix[float32]{}, query, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, nm.Queries)
	assert.Equal(t, 0, nm.K)
	assert.Empty(t, nm.Indices)

	base := matrix(t, [][]float32{{0, 0}, {1, 1}})
	nm, err = Compute(context.Background(), base, vecfile.Matrix[float32]{}, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, nm.Queries)
	assert.Empty(t, nm.Indices)
}

func TestComputeMatchesBruteForce(t *testing.T) {
	rng := testutil.NewRNG(4711)
	base := testutil.GridMatrix(300, 4, 3)
	queries := rng.UniformMatrix(40, 4)

	metrics := []distance.Metric{distance.MetricL2, distance.MetricSquaredL2, distance.MetricL1, distance.MetricCosine}
	for _, m := range metrics {
		t.Run(m.String(), func(t *testing.T) {
			fn, err := distance.Provider(m)
			require.NoError(t, err)
			want := testutil.BruteForce(base, queries, 10, fn)

			nm, err := Compute(context.Background(), base, queries, 10, WithMetric(m), WithWorkers(4), WithBatchSize(3))
			require.NoError(t, err)
			for i := range queries.Rows {
				assert.Equal(t, want[i], nm.Row(i), "query %d", i)
			}
		})
	}
}

func TestComputeParallelEqualsSequential(t *testing.T) {
	rng := testutil.NewRNG(99)
	base := rng.GaussianMatrix(500, 12)
	queries := rng.GaussianMatrix(97, 12)

	seq, err := Compute(context.Background(), base, queries, 20, WithWorkers(1), WithBatchSize(1000))
	require.NoError(t, err)
	par, err := Compute(context.Background(), base, queries, 20, WithWorkers(8), WithBatchSize(5))
	require.NoError(t, err)

	assert.Equal(t, seq, par)
}

func TestComputeCustomDistance(t *testing.T) {
	base := matrix(t, [][]float32{{0}, {10}, {3}})
	query := matrix(t, [][]float32{{0}})

	// Distance to the farthest point first.
	inverted := func(a, b []float32) float64 { return 100 - math.Abs(float64(a[0]-b[0])) }

	nm, err := Compute(context.Background(), base, query, 3, WithDistanceFunc(inverted))
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 0}, nm.Row(0))
}

func TestComputeNaNRanksLast(t *testing.T) {
	base := matrix(t, [][]float32{{float32(math.NaN())}, {2}, {1}})
	query := matrix(t, [][]float32{{0}})

	nm, err := Compute(context.Background(), base, query, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 1, 0}, nm.Row(0))
	assert.True(t, math.IsInf(float64(nm.DistanceRow(0)[2]), 1))
}

func TestComputeFiltered(t *testing.T) {
	rng := testutil.NewRNG(5)
	base, baseLabels := rng.ClusteredMatrix(120, 8, 4, 0.2)
	queries := rng.UniformMatrix(10, 8)
	queryLabels := rng.Labels(10, 4)

	nm, err := Compute(context.Background(), base, queries, 5, WithFilter(baseLabels, queryLabels))
	require.NoError(t, err)

	for i := range queries.Rows {
		for _, id := range nm.Row(i) {
			assert.Equal(t, queryLabels[i], baseLabels[id], "query %d got row %d", i, id)
		}
	}
}

func TestComputeFilteredPadding(t *testing.T) {
	base := matrix(t, [][]float32{{0}, {1}, {2}, {3}})
	query := matrix(t, [][]float32{{0}, {0}})

	nm, err := Compute(context.Background(), base, query, 3,
		WithFilter(labels.Set{"a", "b", "a", "b"}, labels.Set{"a", "zzz"}))
	require.NoError(t, err)

	assert.Equal(t, []uint32{0, 2, Padding}, nm.Row(0))
	assert.True(t, math.IsInf(float64(nm.DistanceRow(0)[2]), 1))
	assert.Equal(t, []uint32{Padding, Padding, Padding}, nm.Row(1))
}

func TestComputeCanceled(t *testing.T) {
	rng := testutil.NewRNG(1)
	base := rng.UniformMatrix(10, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Compute(ctx, base, base, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComputeProgress(t *testing.T) {
	rng := testutil.NewRNG(3)
	base := rng.UniformMatrix(20, 2)
	queries := rng.UniformMatrix(30, 2)

	var mu sync.Mutex
	var reports []Progress
	_, err := Compute(context.Background(), base, queries, 1,
		WithBatchSize(4),
		WithProgress(func(p Progress) {
			mu.Lock()
			reports = append(reports, p)
			mu.Unlock()
		}, time.Hour))
	require.NoError(t, err)

	require.NotEmpty(t, reports)
	last := reports[len(reports)-1]
	assert.Equal(t, 30, last.Done)
	assert.Equal(t, 30, last.Total)
	// One throttled report plus the final one.
	assert.Len(t, reports, 2)
}

func TestComputeWithResourceController(t *testing.T) {
	rng := testutil.NewRNG(8)
	base := rng.UniformMatrix(64, 4)
	rc := resource.NewController(resource.Config{MemoryLimitBytes: blockBytes(10, 2)})

	nm, err := Compute(context.Background(), base, base, 10, WithResourceController(rc), WithWorkers(4), WithBatchSize(2))
	require.NoError(t, err)
	assert.Equal(t, 64, nm.Queries)
	assert.Zero(t, rc.MemoryUsage())

	// The same budget cannot hold a block of four queries.
	_, err = Compute(context.Background(), base, base, 10, WithResourceController(rc), WithBatchSize(4))
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)

	// A heap-only budget is too small once result rows are charged.
	heapOnly := resource.NewController(resource.Config{MemoryLimitBytes: 2 * 10 * itemBytes})
	_, err = Compute(context.Background(), base, base, 10, WithResourceController(heapOnly), WithBatchSize(1))
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)

	tiny := resource.NewController(resource.Config{MemoryLimitBytes: 1})
	_, err = Compute(context.Background(), base, base, 10, WithResourceController(tiny))
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
}

func TestBlockBytesScalesWithRows(t *testing.T) {
	assert.Equal(t, int64(2*5*itemBytes), blockBytes(5, 0))
	assert.Equal(t, blockBytes(5, 1)+int64(3*5*resultBytes), blockBytes(5, 4))
}

func TestWriteAndReadFile(t *testing.T) {
	dir := t.TempDir()
	base := matrix(t, [][]float32{{0, 0}, {1, 0}, {0, 1}, {5, 5}})
	queries := matrix(t, [][]float32{{0, 0}, {5, 4}})

	nm, err := Compute(context.Background(), base, queries, 2)
	require.NoError(t, err)

	gt := filepath.Join(dir, "gt.ibin")
	require.NoError(t, WriteFile(gt, nm))
	dist := filepath.Join(dir, "gt.dist.fbin")
	require.NoError(t, WriteDistances(dist, nm))

	h, err := vecfile.ReadHeader(gt)
	require.NoError(t, err)
	assert.Equal(t, vecfile.Header{Rows: 2, Cols: 2}, h)

	got, err := ReadFile(gt)
	require.NoError(t, err)
	assert.Equal(t, nm.Indices, got.Indices)

	d, err := vecfile.ReadFile[float32](dist)
	require.NoError(t, err)
	assert.Equal(t, nm.Distances, d.Data)
}
