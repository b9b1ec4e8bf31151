package vecfile

import (
	"unsafe"

	"github.com/hupe1980/vecprep/errs"
	"github.com/hupe1980/vecprep/internal/mmap"
)

// Mapped is a read-only view of an uncompressed vector file. On little-endian
// hosts the matrix aliases the mapped pages; elsewhere it holds a decoded copy.
type Mapped[T Element] struct {
	m    Matrix[T]
	hdr  Header
	mapp *mmap.Mapping
}

// OpenMapped maps the file at path. The file length must match the header
// exactly. Compressed files cannot be mapped.
func OpenMapped[T Element](path string) (*Mapped[T], error) {
	if c := CompressionFor(path); c != CompressionNone {
		return nil, errs.Validation("open mapped", "cannot map %s-compressed file", c).WithPath(path)
	}

	mp, err := mmap.Open(path)
	if err != nil {
		return nil, errs.IO("open mapped", path, err)
	}

	v, err := newMapped[T](mp.Bytes())
	if err != nil {
		_ = mp.Close()
		return nil, withPath(err, path)
	}
	if v.m.Data == nil || !isLittleEndian() {
		// Either nothing aliases the mapping or the data was copied.
		_ = mp.Close()
		return v, nil
	}
	_ = mp.Advise(mmap.AccessRandom)
	v.mapp = mp
	return v, nil
}

func newMapped[T Element](b []byte) (*Mapped[T], error) {
	var h Header
	if err := h.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	if int64(len(b)) != h.FileBytes() {
		if int64(len(b)) < h.FileBytes() {
			return nil, errs.Format("open mapped", "payload truncated: header declares %d rows, only %d present",
				h.Rows, (int64(len(b))-HeaderSize)/max(h.RowBytes(), 1))
		}
		return nil, errs.Format("open mapped", "%d trailing bytes after %d declared rows", int64(len(b))-h.FileBytes(), h.Rows)
	}
	n, err := h.Elements()
	if err != nil {
		return nil, err
	}

	m := Matrix[T]{Rows: int(h.Rows), Cols: int(h.Cols)}
	if n > 0 {
		payload := b[HeaderSize:]
		if isLittleEndian() {
			m.Data = unsafe.Slice((*T)(unsafe.Pointer(&payload[0])), n)
		} else {
			m.Data = make([]T, n)
			decodeElements(m.Data, payload)
		}
	}
	return &Mapped[T]{m: m, hdr: h}, nil
}

// Matrix returns the view. It must not be used after Close.
func (v *Mapped[T]) Matrix() Matrix[T] { return v.m }

// Header returns the file header.
func (v *Mapped[T]) Header() Header { return v.hdr }

// Close releases the mapping.
func (v *Mapped[T]) Close() error {
	v.m = Matrix[T]{}
	if v.mapp == nil {
		return nil
	}
	return v.mapp.Close()
}

func isLittleEndian() bool {
	var x uint16 = 1
	return *(*byte)(unsafe.Pointer(&x)) == 1
}
