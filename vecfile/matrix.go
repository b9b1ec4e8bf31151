package vecfile

import (
	"github.com/hupe1980/vecprep/errs"
)

// Element is a 4-byte element type of the format.
type Element interface {
	float32 | uint32
}

// Matrix is a row-major N×D matrix. A VectorSet is a Matrix[float32]; an
// index or neighbor file decodes to a Matrix[uint32].
type Matrix[T Element] struct {
	Rows int
	Cols int
	Data []T
}

// NewMatrix allocates a zeroed rows×cols matrix.
func NewMatrix[T Element](rows, cols int) Matrix[T] {
	if rows*cols == 0 {
		return Matrix[T]{Rows: rows, Cols: cols}
	}
	return Matrix[T]{Rows: rows, Cols: cols, Data: make([]T, rows*cols)}
}

// FromRows copies rows into a Matrix. Every row must have the width of the
// first one.
func FromRows[T Element](rows [][]T) (Matrix[T], error) {
	if len(rows) == 0 {
		return Matrix[T]{}, nil
	}
	cols := len(rows[0])
	m := NewMatrix[T](len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return Matrix[T]{}, errs.Validation("from rows", "row %d has %d elements, want %d", i, len(row), cols)
		}
		copy(m.Data[i*cols:], row)
	}
	return m, nil
}

// Row returns row i as a subslice of Data.
func (m Matrix[T]) Row(i int) []T {
	return m.Data[i*m.Cols : (i+1)*m.Cols : (i+1)*m.Cols]
}

// Slice returns rows [from, to) sharing Data.
func (m Matrix[T]) Slice(from, to int) Matrix[T] {
	return Matrix[T]{Rows: to - from, Cols: m.Cols, Data: m.Data[from*m.Cols : to*m.Cols]}
}

// Header returns the file header for m.
func (m Matrix[T]) Header() (Header, error) {
	return NewHeader(m.Rows, m.Cols)
}

// Validate checks that Data holds exactly Rows*Cols elements.
func (m Matrix[T]) Validate() error {
	if m.Rows < 0 || m.Cols < 0 {
		return errs.Validation("matrix", "negative shape %dx%d", m.Rows, m.Cols)
	}
	if len(m.Data) != m.Rows*m.Cols {
		return errs.Validation("matrix", "shape %dx%d needs %d elements, have %d", m.Rows, m.Cols, m.Rows*m.Cols, len(m.Data))
	}
	return nil
}
