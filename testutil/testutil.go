package testutil

import (
	"math"
	"math/rand"
	"sort"
	"strconv"
	"sync"

	"github.com/hupe1980/vecprep/distance"
	"github.com/hupe1980/vecprep/labels"
	"github.com/hupe1980/vecprep/vecfile"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Intn in a loop).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// UniformMatrix generates num vectors with values in range [0, 1).
func (r *RNG) UniformMatrix(num, dimensions int) vecfile.Matrix[float32] {
	m := vecfile.NewMatrix[float32](num, dimensions)
	r.FillUniform(m.Data)
	return m
}

// GaussianMatrix generates num vectors from a standard normal distribution.
func (r *RNG) GaussianMatrix(num, dimensions int) vecfile.Matrix[float32] {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := vecfile.NewMatrix[float32](num, dimensions)
	for i := range m.Data {
		m.Data[i] = float32(r.rand.NormFloat64())
	}
	return m
}

// UnitMatrix generates L2-normalized random vectors (on the hypersphere).
func (r *RNG) UnitMatrix(num, dimensions int) vecfile.Matrix[float32] {
	m := r.GaussianMatrix(num, dimensions)
	distance.NormalizeRows(m.Data, dimensions, distance.DefaultEpsilon)
	return m
}

// ClusteredMatrix generates vectors around random unit centroids. Row i
// belongs to cluster i%clusters, which is also returned as its label.
func (r *RNG) ClusteredMatrix(num, dim, clusters int, spread float32) (vecfile.Matrix[float32], labels.Set) {
	centroids := r.UnitMatrix(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	m := vecfile.NewMatrix[float32](num, dim)
	lbls := make(labels.Set, num)
	for i := range num {
		c := i % clusters
		centroid := centroids.Row(c)
		vec := m.Row(i)
		for j := range dim {
			vec[j] = centroid[j] + float32(r.rand.NormFloat64())*spread
		}
		lbls[i] = strconv.Itoa(c)
	}
	return m, lbls
}

// Labels returns num labels drawn uniformly from classes values.
func (r *RNG) Labels(num, classes int) labels.Set {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := make(labels.Set, num)
	for i := range s {
		s[i] = strconv.Itoa(r.rand.Intn(classes))
	}
	return s
}

// GridMatrix returns num vectors whose coordinates are small integers in
// [0, levels). Integer coordinates make exact distance ties common.
func GridMatrix(num, dim, levels int) vecfile.Matrix[float32] {
	m := vecfile.NewMatrix[float32](num, dim)
	for i := range m.Data {
		m.Data[i] = float32((i*7 + i/dim) % levels)
	}
	return m
}

// BruteForce returns, for every query, the k nearest base rows under dist.
// It sorts all distances with a stable sort, so equal distances keep
// ascending row order.
func BruteForce(base, queries vecfile.Matrix[float32], k int, dist distance.Func) [][]uint32 {
	out := make([][]uint32, queries.Rows)
	type cand struct {
		idx  uint32
		dist float64
	}
	cands := make([]cand, base.Rows)
	for q := range queries.Rows {
		qv := queries.Row(q)
		for i := range base.Rows {
			d := dist(qv, base.Row(i))
			if math.IsNaN(d) {
				d = math.Inf(1)
			}
			cands[i] = cand{idx: uint32(i), dist: d}
		}
		sort.SliceStable(cands, func(a, b int) bool { return cands[a].dist < cands[b].dist })
		row := make([]uint32, min(k, len(cands)))
		for i := range row {
			row[i] = cands[i].idx
		}
		out[q] = row
	}
	return out
}

// ComputeRecall returns the fraction of the first len(approximate) ground
// truth entries that appear in approximate.
func ComputeRecall(groundTruth, approximate []uint32) float64 {
	if len(groundTruth) == 0 || len(approximate) == 0 {
		if len(groundTruth) == 0 && len(approximate) == 0 {
			return 1.0
		}
		return 0.0
	}

	k := min(len(approximate), len(groundTruth))

	truthSet := make(map[uint32]struct{}, k)
	for i := range k {
		truthSet[groundTruth[i]] = struct{}{}
	}

	hits := 0
	for _, id := range approximate[:k] {
		if _, ok := truthSet[id]; ok {
			hits++
		}
	}

	return float64(hits) / float64(k)
}
