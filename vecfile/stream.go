package vecfile

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/hupe1980/vecprep/errs"
)

// Writer streams rows of one element type after a header.
type Writer[T Element] struct {
	w       io.Writer
	hdr     Header
	written uint32
	buf     []byte
}

// NewWriter writes h to w and returns a Writer expecting h.Rows rows.
func NewWriter[T Element](w io.Writer, h Header) (*Writer[T], error) {
	b, _ := h.MarshalBinary()
	if _, err := w.Write(b); err != nil {
		return nil, errs.IO("write header", "", err)
	}
	return &Writer[T]{
		w:   w,
		hdr: h,
		buf: make([]byte, 0, h.RowBytes()),
	}, nil
}

// Header returns the header that was written.
func (w *Writer[T]) Header() Header { return w.hdr }

// Written returns the number of rows written so far.
func (w *Writer[T]) Written() uint32 { return w.written }

// WriteRow encodes one row. The row must have exactly Cols elements.
func (w *Writer[T]) WriteRow(row []T) error {
	if err := w.checkRow(int64(len(row)) * ElementSize); err != nil {
		return err
	}
	w.buf = appendElements(w.buf[:0], row)
	return w.emit(w.buf)
}

// WriteRawRow writes one already-encoded little-endian row.
func (w *Writer[T]) WriteRawRow(row []byte) error {
	if err := w.checkRow(int64(len(row))); err != nil {
		return err
	}
	return w.emit(row)
}

// WriteMatrix writes every row of m.
func (w *Writer[T]) WriteMatrix(m Matrix[T]) error {
	for i := 0; i < m.Rows; i++ {
		if err := w.WriteRow(m.Row(i)); err != nil {
			return err
		}
	}
	return nil
}

// Finish reports an error unless exactly Rows rows were written.
func (w *Writer[T]) Finish() error {
	if w.written != w.hdr.Rows {
		return errs.Validation("write", "wrote %d of %d declared rows", w.written, w.hdr.Rows)
	}
	return nil
}

func (w *Writer[T]) checkRow(n int64) error {
	if n != w.hdr.RowBytes() {
		return errs.Validation("write row", "row has %d bytes, header declares %d", n, w.hdr.RowBytes())
	}
	if w.written >= w.hdr.Rows {
		return errs.Validation("write row", "header declares %d rows", w.hdr.Rows)
	}
	return nil
}

func (w *Writer[T]) emit(b []byte) error {
	if _, err := w.w.Write(b); err != nil {
		return errs.IO("write row", "", err)
	}
	w.written++
	return nil
}

// Reader streams rows of one element type after a header.
type Reader[T Element] struct {
	r    io.Reader
	hdr  Header
	read uint32
	buf  []byte
}

// NewReader reads the header from r.
func NewReader[T Element](r io.Reader) (*Reader[T], error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	return &Reader[T]{
		r:   r,
		hdr: h,
		buf: make([]byte, h.RowBytes()),
	}, nil
}

// Header returns the decoded header.
func (r *Reader[T]) Header() Header { return r.hdr }

// Remaining returns the number of rows not yet read.
func (r *Reader[T]) Remaining() uint32 { return r.hdr.Rows - r.read }

// ReadRawRow reads the next encoded row into dst, which must hold RowBytes.
// It returns io.EOF after the declared rows and a format error if the payload
// ends early.
func (r *Reader[T]) ReadRawRow(dst []byte) error {
	if r.read >= r.hdr.Rows {
		return io.EOF
	}
	if int64(len(dst)) != r.hdr.RowBytes() {
		return errs.Validation("read row", "buffer has %d bytes, row has %d", len(dst), r.hdr.RowBytes())
	}
	if _, err := io.ReadFull(r.r, dst); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return errs.Format("read row", "payload truncated: header declares %d rows, only %d present", r.hdr.Rows, r.read)
		}
		return errs.IO("read row", "", err)
	}
	r.read++
	return nil
}

// ReadRow reads and decodes the next row into dst, which must hold Cols
// elements.
func (r *Reader[T]) ReadRow(dst []T) error {
	if int64(len(dst)) != int64(r.hdr.Cols) {
		return errs.Validation("read row", "buffer has %d elements, row has %d", len(dst), r.hdr.Cols)
	}
	if err := r.ReadRawRow(r.buf); err != nil {
		return err
	}
	decodeElements(dst, r.buf)
	return nil
}

// Finish verifies that every declared row was consumed and that the stream
// holds nothing after the payload.
func (r *Reader[T]) Finish() error {
	if r.read != r.hdr.Rows {
		return errs.Validation("read", "consumed %d of %d declared rows", r.read, r.hdr.Rows)
	}
	var one [1]byte
	n, err := io.ReadFull(r.r, one[:])
	if n > 0 {
		return errs.Format("read", "trailing bytes after %d declared rows", r.hdr.Rows)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return errs.IO("read", "", err)
	}
	return nil
}

// ReadAll reads the remaining rows into a Matrix and calls Finish.
func (r *Reader[T]) ReadAll() (Matrix[T], error) {
	total, err := r.hdr.Elements()
	if err != nil {
		return Matrix[T]{}, err
	}
	cols := int(r.hdr.Cols)
	// The header is untrusted; grow as rows actually arrive.
	data := make([]T, 0, min(total, 1<<20))
	row := make([]T, cols)
	for {
		err := r.ReadRow(row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Matrix[T]{}, err
		}
		data = append(data, row...)
	}
	if err := r.Finish(); err != nil {
		return Matrix[T]{}, err
	}
	if len(data) == 0 {
		data = nil
	}
	return Matrix[T]{Rows: int(r.hdr.Rows), Cols: cols, Data: data}, nil
}

func appendElements[T Element](b []byte, row []T) []byte {
	switch v := any(row).(type) {
	case []float32:
		for _, x := range v {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(x))
		}
	case []uint32:
		for _, x := range v {
			b = binary.LittleEndian.AppendUint32(b, x)
		}
	}
	return b
}

func decodeElements[T Element](dst []T, b []byte) {
	switch v := any(dst).(type) {
	case []float32:
		for i := range v {
			v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*ElementSize:]))
		}
	case []uint32:
		for i := range v {
			v[i] = binary.LittleEndian.Uint32(b[i*ElementSize:])
		}
	}
}
