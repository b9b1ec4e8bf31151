package dataset

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"

	"github.com/hupe1980/vecprep/errs"
	"github.com/hupe1980/vecprep/internal/conv"
	"github.com/hupe1980/vecprep/vecfile"
)

// LoadFvecs loads a texmex .fvecs file: every record is an int32 dimension
// followed by that many float32 values, all little-endian.
func LoadFvecs(path string) (vecfile.Matrix[float32], error) {
	return loadVecs(path, "read fvecs", func(b []byte) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	})
}

// LoadIvecs loads a texmex .ivecs file (int32 values, typically ground-truth
// neighbor ids). Negative values saturate to 0.
func LoadIvecs(path string) (vecfile.Matrix[uint32], error) {
	return loadVecs(path, "read ivecs", func(b []byte) uint32 {
		return conv.SaturateUint32(int64(int32(binary.LittleEndian.Uint32(b))))
	})
}

// ReadVecs reads dim-prefixed records from r, decoding each element with
// decode.
func ReadVecs[T vecfile.Element](r io.Reader, decode func([]byte) T) (vecfile.Matrix[T], error) {
	var (
		data []T
		rows int
		dim  = -1
		hdr  [4]byte
		rec  []byte
	)
	for {
		_, err := io.ReadFull(r, hdr[:])
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return vecfile.Matrix[T]{}, errs.Format("read vecs", "record %d has a truncated dimension", rows)
		}
		if err != nil {
			return vecfile.Matrix[T]{}, errs.IO("read vecs", "", err)
		}

		d := int32(binary.LittleEndian.Uint32(hdr[:]))
		if d < 0 {
			return vecfile.Matrix[T]{}, errs.Format("read vecs", "record %d has negative dimension %d", rows, d)
		}
		if dim < 0 {
			dim = int(d)
			rec = make([]byte, dim*vecfile.ElementSize)
		} else if int(d) != dim {
			return vecfile.Matrix[T]{}, errs.Format("read vecs", "inconsistent dimensions: expected %d, got %d in record %d", dim, d, rows)
		}

		if _, err := io.ReadFull(r, rec); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return vecfile.Matrix[T]{}, errs.Format("read vecs", "record %d is truncated", rows)
			}
			return vecfile.Matrix[T]{}, errs.IO("read vecs", "", err)
		}
		for i := range dim {
			data = append(data, decode(rec[i*vecfile.ElementSize:]))
		}
		rows++
	}
	return vecfile.Matrix[T]{Rows: rows, Cols: max(dim, 0), Data: data}, nil
}

func loadVecs[T vecfile.Element](path, op string, decode func([]byte) T) (vecfile.Matrix[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return vecfile.Matrix[T]{}, errs.IO(op, path, err)
	}
	defer f.Close()

	m, err := ReadVecs(bufio.NewReaderSize(f, 1<<20), decode)
	if err != nil {
		var e *errs.Error
		if errors.As(err, &e) {
			e.Op, e.Path = op, path
		}
		return vecfile.Matrix[T]{}, err
	}
	return m, nil
}

// WriteFvecs writes m in .fvecs layout.
func WriteFvecs(path string, m vecfile.Matrix[float32]) error {
	if err := m.Validate(); err != nil {
		return err
	}
	d, err := conv.IntToUint32(m.Cols)
	if err != nil || d > math.MaxInt32 {
		return errs.Validation("write fvecs", "dimension %d out of range", m.Cols)
	}

	f, err := os.Create(path)
	if err != nil {
		return errs.IO("write fvecs", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	b := make([]byte, 0, 4+m.Cols*vecfile.ElementSize)
	for i := range m.Rows {
		b = binary.LittleEndian.AppendUint32(b[:0], d)
		for _, v := range m.Row(i) {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
		}
		if _, err := w.Write(b); err != nil {
			return errs.IO("write fvecs", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return errs.IO("write fvecs", path, err)
	}
	if err := f.Close(); err != nil {
		return errs.IO("write fvecs", path, err)
	}
	return nil
}
