package distance

import (
	"fmt"
	"math"
	"strings"
)

// DefaultEpsilon is added to the norm before dividing in NormalizeL2.
const DefaultEpsilon = 1e-10

// Metric represents the distance metric used for vector comparison.
type Metric int

const (
	MetricL2 Metric = iota
	MetricSquaredL2
	MetricCosine
	MetricL1
)

func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "L2"
	case MetricSquaredL2:
		return "SquaredL2"
	case MetricCosine:
		return "Cosine"
	case MetricL1:
		return "L1"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// ParseMetric parses a metric name as accepted on the command line.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "l2", "euclidean":
		return MetricL2, nil
	case "sql2", "squared_l2", "sqeuclidean":
		return MetricSquaredL2, nil
	case "cosine":
		return MetricCosine, nil
	case "l1", "manhattan", "cityblock":
		return MetricL1, nil
	default:
		return 0, fmt.Errorf("unknown metric %q", s)
	}
}

// Func computes the distance between two vectors of equal length.
// It must be symmetric and non-negative.
type Func func(a, b []float32) float64

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricL2:
		return L2, nil
	case MetricSquaredL2:
		return SquaredL2, nil
	case MetricCosine:
		return Cosine, nil
	case MetricL1:
		return L1, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}

// SquaredL2 calculates the squared Euclidean distance.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float64 {
	b = b[:len(a)]
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// L2 calculates the Euclidean distance.
func L2(a, b []float32) float64 {
	return math.Sqrt(SquaredL2(a, b))
}

// Dot calculates the dot product of two vectors.
func Dot(a, b []float32) float64 {
	b = b[:len(a)]
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Cosine calculates 1 - cos(a, b), clamped to [0, 2].
// A zero vector is at distance 1 from everything.
func Cosine(a, b []float32) float64 {
	b = b[:len(a)]
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	d := 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
	return min(max(d, 0), 2)
}

// L1 calculates the Manhattan distance.
func L1(a, b []float32) float64 {
	b = b[:len(a)]
	var sum float64
	for i := range a {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}
	return sum
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	return math.Sqrt(Dot(v, v))
}

// NormalizeL2 divides v in place by (‖v‖₂ + eps).
func NormalizeL2(v []float32, eps float64) {
	inv := 1 / (Norm(v) + eps)
	if math.IsInf(inv, 0) {
		// eps == 0 and a zero row: leave it untouched.
		return
	}
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

// NormalizeRows normalizes every dim-wide row of a row-major slice.
func NormalizeRows(data []float32, dim int, eps float64) {
	if dim <= 0 {
		return
	}
	for off := 0; off+dim <= len(data); off += dim {
		NormalizeL2(data[off:off+dim], eps)
	}
}
