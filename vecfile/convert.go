package vecfile

import (
	"github.com/hupe1980/vecprep/errs"
	"github.com/hupe1980/vecprep/internal/conv"
)

// FromFloat64Rows converts rows to float32 by IEEE round-to-nearest-even.
func FromFloat64Rows(rows [][]float64) (Matrix[float32], error) {
	if len(rows) == 0 {
		return Matrix[float32]{}, nil
	}
	cols := len(rows[0])
	m := NewMatrix[float32](len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return Matrix[float32]{}, errs.Validation("from float64 rows", "row %d has %d elements, want %d", i, len(row), cols)
		}
		out := m.Row(i)
		for j, v := range row {
			out[j] = conv.Float64ToFloat32(v)
		}
	}
	return m, nil
}

// FromInt64Rows converts rows to uint32 by saturation: negatives become 0 and
// values above MaxUint32 become MaxUint32.
func FromInt64Rows(rows [][]int64) (Matrix[uint32], error) {
	if len(rows) == 0 {
		return Matrix[uint32]{}, nil
	}
	cols := len(rows[0])
	m := NewMatrix[uint32](len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return Matrix[uint32]{}, errs.Validation("from int64 rows", "row %d has %d elements, want %d", i, len(row), cols)
		}
		out := m.Row(i)
		for j, v := range row {
			out[j] = conv.SaturateUint32(v)
		}
	}
	return m, nil
}
