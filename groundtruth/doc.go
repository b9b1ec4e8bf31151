// Package groundtruth computes exact k-nearest-neighbor ground truth.
//
// Every query is compared against every base vector; nothing is pruned or
// approximated. The K smallest distances are selected with a bounded
// max-heap keyed by (distance, row), so rows at equal distance are ranked by
// ascending row index and the result does not depend on evaluation order.
//
// Queries are evaluated in blocks by a bounded pool of goroutines. Each block
// writes only its own rows of the result, so row i of the output always
// belongs to query i.
//
// The engine never normalizes its inputs. Callers that want cosine order
// under L2 normalize the vectors first (see distance.NormalizeRows) or use
// distance.MetricCosine.
//
// Basic usage:
//
//	nm, err := groundtruth.Compute(ctx, base, queries, 100,
//	    groundtruth.WithMetric(distance.MetricL2),
//	    groundtruth.WithWorkers(8),
//	)
//	if err != nil {
//	    return err
//	}
//	err = groundtruth.WriteFile("gt.ibin", nm)
package groundtruth
