package vecfile

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/hupe1980/vecprep/errs"
	"github.com/hupe1980/vecprep/internal/fs"
)

const bufferSize = 256 * 1024

// FileWriter writes a vector file through a temporary sibling that is renamed
// into place by Commit.
type FileWriter[T Element] struct {
	*Writer[T]

	path   string
	fsys   fs.FileSystem
	tmp    fs.File
	buf    *bufio.Writer
	comp   io.WriteCloser
	closed bool
	done   bool
}

// Create starts writing a vector file with header h at path.
func Create[T Element](path string, h Header) (*FileWriter[T], error) {
	return CreateFS[T](fs.Default, path, h)
}

// CreateFS is Create with the temporary file, rename and cleanup going
// through fsys.
func CreateFS[T Element](fsys fs.FileSystem, path string, h Header) (*FileWriter[T], error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := fsys.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return nil, errs.IO("create", path, err)
	}

	fw := &FileWriter[T]{
		path: path,
		fsys: fsys,
		tmp:  tmp,
		buf:  bufio.NewWriterSize(tmp, bufferSize),
	}

	fw.comp, err = compressWriter(CompressionFor(path), fw.buf)
	if err != nil {
		fw.Abort()
		return nil, errs.IO("create", path, err)
	}

	fw.Writer, err = NewWriter[T](fw.comp, h)
	if err != nil {
		fw.Abort()
		return nil, withPath(err, path)
	}
	return fw, nil
}

// Path returns the final path.
func (fw *FileWriter[T]) Path() string { return fw.path }

// Close checks the row count and flushes the temporary file to disk. The file
// is not visible under its final name until Commit.
func (fw *FileWriter[T]) Close() error {
	if fw.closed {
		return nil
	}
	if err := fw.Finish(); err != nil {
		return withPath(err, fw.path)
	}
	if err := fw.comp.Close(); err != nil {
		return errs.IO("close", fw.path, err)
	}
	if err := fw.buf.Flush(); err != nil {
		return errs.IO("flush", fw.path, err)
	}
	if err := fw.tmp.Sync(); err != nil {
		return errs.IO("sync", fw.path, err)
	}
	if err := fw.tmp.Close(); err != nil {
		return errs.IO("close", fw.path, err)
	}
	fw.closed = true
	return nil
}

// Commit closes the file if needed and renames it to its final path.
func (fw *FileWriter[T]) Commit() error {
	if fw.done {
		return nil
	}
	if err := fw.Close(); err != nil {
		return err
	}
	_ = fw.fsys.Chmod(fw.tmp.Name(), 0o644)
	if err := fw.fsys.Rename(fw.tmp.Name(), fw.path); err != nil {
		return errs.IO("rename", fw.path, err)
	}
	fw.done = true
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit.
func (fw *FileWriter[T]) Abort() {
	if fw.done {
		return
	}
	if !fw.closed {
		_ = fw.tmp.Close()
	}
	_ = fw.fsys.Remove(fw.tmp.Name())
	fw.done = true
}

// WriteFile writes m to path atomically.
func WriteFile[T Element](path string, m Matrix[T]) error {
	if err := m.Validate(); err != nil {
		return withPath(err, path)
	}
	h, err := m.Header()
	if err != nil {
		return withPath(err, path)
	}
	fw, err := Create[T](path, h)
	if err != nil {
		return err
	}
	if err := fw.WriteMatrix(m); err != nil {
		fw.Abort()
		return withPath(err, path)
	}
	if err := fw.Commit(); err != nil {
		fw.Abort()
		return err
	}
	return nil
}

// FileReader reads a vector file.
type FileReader[T Element] struct {
	*Reader[T]

	path string
	f    *os.File
	dec  io.ReadCloser
}

// Open opens a vector file and reads its header. For uncompressed files the
// file size is checked against the header up front.
func Open[T Element](path string) (*FileReader[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.IO("open", path, err)
	}

	fr := &FileReader[T]{path: path, f: f}
	comp := CompressionFor(path)

	fr.dec, err = decompressReader(comp, bufio.NewReaderSize(f, bufferSize))
	if err != nil {
		_ = f.Close()
		return nil, errs.IO("open", path, err)
	}

	fr.Reader, err = NewReader[T](fr.dec)
	if err != nil {
		_ = fr.Close()
		return nil, withPath(err, path)
	}

	if comp == CompressionNone {
		if err := checkSize(f, fr.Header()); err != nil {
			_ = fr.Close()
			return nil, withPath(err, path)
		}
	}
	return fr, nil
}

// Path returns the file path.
func (fr *FileReader[T]) Path() string { return fr.path }

// ReadRow reads the next row, attaching the path to errors.
func (fr *FileReader[T]) ReadRow(dst []T) error {
	return withPath(fr.Reader.ReadRow(dst), fr.path)
}

// ReadRawRow reads the next encoded row, attaching the path to errors.
func (fr *FileReader[T]) ReadRawRow(dst []byte) error {
	return withPath(fr.Reader.ReadRawRow(dst), fr.path)
}

// Finish verifies the payload was fully consumed, attaching the path to errors.
func (fr *FileReader[T]) Finish() error {
	return withPath(fr.Reader.Finish(), fr.path)
}

// Close releases the file.
func (fr *FileReader[T]) Close() error {
	var err error
	if fr.dec != nil {
		err = fr.dec.Close()
	}
	if cerr := fr.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return errs.IO("close", fr.path, err)
	}
	return nil
}

// ReadFile decodes the whole file at path.
func ReadFile[T Element](path string) (Matrix[T], error) {
	fr, err := Open[T](path)
	if err != nil {
		return Matrix[T]{}, err
	}
	defer fr.Close()

	m, err := fr.ReadAll()
	if err != nil {
		return Matrix[T]{}, withPath(err, path)
	}
	return m, nil
}

// ReadHeader reads only the header of the file at path.
func ReadHeader(path string) (Header, error) {
	fr, err := Open[uint32](path)
	if err != nil {
		return Header{}, err
	}
	defer fr.Close()
	return fr.Header(), nil
}

func checkSize(f *os.File, h Header) error {
	fi, err := f.Stat()
	if err != nil {
		return errs.IO("stat", "", err)
	}
	size, want := fi.Size(), h.FileBytes()
	if size < want {
		present := (size - HeaderSize) / max(h.RowBytes(), 1)
		return errs.Format("open", "payload truncated: header declares %d rows, only %d present (%d of %d bytes)",
			h.Rows, present, size, want)
	}
	if size > want {
		return errs.Format("open", "%d trailing bytes after %d declared rows", size-want, h.Rows)
	}
	return nil
}

// withPath fills in the path of an errs.Error that does not have one yet.
func withPath(err error, path string) error {
	var e *errs.Error
	if errors.As(err, &e) && e.Path == "" {
		e.Path = path
	}
	return err
}
