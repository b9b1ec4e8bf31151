package groundtruth

import (
	"github.com/hupe1980/vecprep/errs"
	"github.com/hupe1980/vecprep/vecfile"
)

// Recall returns the mean recall@k of results against truth: for each query,
// the share of the first k true neighbors found among the first k result
// entries. Padding entries in truth are not counted as neighbors.
func Recall(truth NeighborMatrix, results vecfile.Matrix[uint32], k int) (float64, error) {
	if results.Rows != truth.Queries {
		return 0, errs.Validation("recall", "result has %d rows, truth has %d", results.Rows, truth.Queries)
	}
	if k <= 0 || k > truth.K || k > results.Cols {
		return 0, errs.Validation("recall", "k=%d exceeds truth width %d or result width %d", k, truth.K, results.Cols)
	}
	if truth.Queries == 0 {
		return 1, nil
	}

	want := make(map[uint32]struct{}, k)
	var sum float64
	for i := range truth.Queries {
		clear(want)
		for _, id := range truth.Row(i)[:k] {
			if id != Padding {
				want[id] = struct{}{}
			}
		}
		if len(want) == 0 {
			sum++
			continue
		}
		hits := 0
		for _, id := range results.Row(i)[:k] {
			if _, ok := want[id]; ok {
				hits++
				delete(want, id)
			}
		}
		total := hits + len(want)
		sum += float64(hits) / float64(total)
	}
	return sum / float64(truth.Queries), nil
}
