// Package distance provides the metrics used for exact ground truth.
//
// # Supported Metrics
//
//   - MetricL2: Euclidean distance (default)
//   - MetricSquaredL2: squared Euclidean distance (same ordering as L2)
//   - MetricCosine: 1 - cosine similarity
//   - MetricL1: Manhattan distance
//
// All functions accumulate in float64. Exact ground truth is graded against,
// so accuracy comes before SIMD throughput here.
//
// # Normalization
//
// NormalizeL2 divides a row by (‖row‖₂ + ε). With ε > 0 an all-zero row stays
// all-zero instead of becoming NaN. Under L2 on unit-normalized rows the
// neighbor order is the cosine order, so callers wanting cosine ground truth
// can normalize and keep MetricL2.
//
// # Usage
//
//	fn, _ := distance.Provider(distance.MetricL2)
//	d := fn(a, b)
//	distance.NormalizeRows(data, dim, distance.DefaultEpsilon)
package distance
