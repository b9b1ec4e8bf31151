package vecfile

import (
	"encoding/binary"
	"io"

	"github.com/hupe1980/vecprep/errs"
	"github.com/hupe1980/vecprep/internal/conv"
)

// HeaderSize is the encoded size of a Header in bytes.
const HeaderSize = 8

// ElementSize is the encoded size of one element in bytes.
const ElementSize = 4

// Header is the (rows, cols) prefix of every vector file.
type Header struct {
	Rows uint32
	Cols uint32
}

// NewHeader builds a header from int counts, rejecting values that do not fit
// in uint32.
func NewHeader(rows, cols int) (Header, error) {
	r, err := conv.IntToUint32(rows)
	if err != nil {
		return Header{}, errs.Validation("header", "row count %d not representable: %v", rows, err)
	}
	c, err := conv.IntToUint32(cols)
	if err != nil {
		return Header{}, errs.Validation("header", "column count %d not representable: %v", cols, err)
	}
	return Header{Rows: r, Cols: c}, nil
}

// RowBytes returns the encoded size of one row.
func (h Header) RowBytes() int64 {
	return int64(h.Cols) * ElementSize
}

// PayloadBytes returns the encoded size of the payload.
func (h Header) PayloadBytes() int64 {
	return int64(h.Rows) * h.RowBytes()
}

// FileBytes returns the encoded size of header plus payload.
func (h Header) FileBytes() int64 {
	return HeaderSize + h.PayloadBytes()
}

// Elements returns rows*cols as an int, or a format error if the product is
// not addressable on this platform.
func (h Header) Elements() (int, error) {
	rows, err := conv.Uint32ToInt(h.Rows)
	if err != nil {
		return 0, errs.Format("header", "row count %d out of range", h.Rows)
	}
	cols, err := conv.Uint32ToInt(h.Cols)
	if err != nil {
		return 0, errs.Format("header", "column count %d out of range", h.Cols)
	}
	n, err := conv.MulInt(rows, cols)
	if err != nil {
		return 0, errs.Format("header", "%d x %d elements out of range", h.Rows, h.Cols)
	}
	return n, nil
}

// MarshalBinary encodes h.
func (h Header) MarshalBinary() ([]byte, error) {
	return h.AppendBinary(make([]byte, 0, HeaderSize))
}

// AppendBinary appends the encoding of h to b.
func (h Header) AppendBinary(b []byte) ([]byte, error) {
	b = binary.LittleEndian.AppendUint32(b, h.Rows)
	b = binary.LittleEndian.AppendUint32(b, h.Cols)
	return b, nil
}

// UnmarshalBinary decodes h from the first HeaderSize bytes of b.
func (h *Header) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderSize {
		return errs.Format("header", "need %d bytes, got %d", HeaderSize, len(b))
	}
	h.Rows = binary.LittleEndian.Uint32(b[0:4])
	h.Cols = binary.LittleEndian.Uint32(b[4:8])
	return nil
}

// readHeader reads a header from r.
func readHeader(r io.Reader) (Header, error) {
	var buf [HeaderSize]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Header{}, errs.Format("read header", "file has %d of %d header bytes", n, HeaderSize)
		}
		return Header{}, errs.IO("read header", "", err)
	}
	var h Header
	if err := h.UnmarshalBinary(buf[:]); err != nil {
		return Header{}, err
	}
	return h, nil
}
