package labels

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hupe1980/vecprep/errs"
	"github.com/hupe1980/vecprep/internal/fs"
)

// DefaultFile is the label file name used when none is given.
const DefaultFile = "label_file.txt"

// maxLine bounds a single label line.
const maxLine = 1 << 20

// Set holds one label per row.
type Set []string

// FromInts formats integer class ids as labels.
func FromInts[T ~int | ~int32 | ~int64 | ~uint8 | ~uint32](ids []T) Set {
	s := make(Set, len(ids))
	for i, id := range ids {
		s[i] = strconv.FormatInt(int64(id), 10)
	}
	return s
}

// Slice returns the labels of rows [from, to).
func (s Set) Slice(from, to int) Set { return s[from:to] }

// Read reads the label file at path.
func Read(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.IO("read labels", path, err)
	}
	defer f.Close()

	s, err := ReadFrom(f)
	if err != nil {
		return nil, withPath(err, path)
	}
	return s, nil
}

// ReadFrom reads labels from r until EOF.
func ReadFrom(r io.Reader) (Set, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var s Set
	for sc.Scan() {
		s = append(s, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, errs.Format("read labels", "line %d exceeds %d bytes", len(s)+1, maxLine)
		}
		return nil, errs.IO("read labels", "", err)
	}
	return s, nil
}

// Writer writes labels one per line.
type Writer struct {
	w       *bufio.Writer
	written int
}

// NewWriter returns a buffered label writer. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write writes one label. Labels must not contain line breaks.
func (w *Writer) Write(label string) error {
	if strings.ContainsAny(label, "\r\n") {
		return errs.Validation("write label", "label %d contains a line break", w.written)
	}
	if _, err := w.w.WriteString(label); err != nil {
		return errs.IO("write label", "", err)
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return errs.IO("write label", "", err)
	}
	w.written++
	return nil
}

// Written returns the number of labels written.
func (w *Writer) Written() int { return w.written }

// Flush writes buffered labels to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		return errs.IO("flush labels", "", err)
	}
	return nil
}

// FileWriter writes a label file through a temporary sibling that Commit
// renames into place.
type FileWriter struct {
	*Writer

	path   string
	fsys   fs.FileSystem
	tmp    fs.File
	closed bool
	done   bool
}

// Create starts an atomic label file at path.
func Create(path string) (*FileWriter, error) {
	return CreateFS(fs.Default, path)
}

// CreateFS is Create on fsys.
func CreateFS(fsys fs.FileSystem, path string) (*FileWriter, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := fsys.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return nil, errs.IO("create labels", path, err)
	}
	return &FileWriter{Writer: NewWriter(tmp), path: path, fsys: fsys, tmp: tmp}, nil
}

// Path returns the final path.
func (fw *FileWriter) Path() string { return fw.path }

// Close flushes and syncs the temporary file without renaming it.
func (fw *FileWriter) Close() error {
	if fw.closed {
		return nil
	}
	if err := fw.w.Flush(); err != nil {
		return errs.IO("flush labels", fw.path, err)
	}
	if err := fw.tmp.Sync(); err != nil {
		return errs.IO("sync labels", fw.path, err)
	}
	if err := fw.tmp.Close(); err != nil {
		return errs.IO("close labels", fw.path, err)
	}
	fw.closed = true
	return nil
}

// Commit closes the file if needed and renames it into place.
func (fw *FileWriter) Commit() error {
	if fw.done {
		return nil
	}
	if err := fw.Close(); err != nil {
		return err
	}
	_ = fw.fsys.Chmod(fw.tmp.Name(), 0o644)
	if err := fw.fsys.Rename(fw.tmp.Name(), fw.path); err != nil {
		return errs.IO("rename labels", fw.path, err)
	}
	fw.done = true
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit.
func (fw *FileWriter) Abort() {
	if fw.done {
		return
	}
	if !fw.closed {
		_ = fw.tmp.Close()
	}
	_ = fw.fsys.Remove(fw.tmp.Name())
	fw.done = true
}

// Write writes s to path atomically.
func Write(path string, s Set) error {
	fw, err := Create(path)
	if err != nil {
		return err
	}
	for _, l := range s {
		if err := fw.Writer.Write(l); err != nil {
			fw.Abort()
			return withPath(err, path)
		}
	}
	if err := fw.Commit(); err != nil {
		fw.Abort()
		return err
	}
	return nil
}

func withPath(err error, path string) error {
	var e *errs.Error
	if errors.As(err, &e) && e.Path == "" {
		e.Path = path
	}
	return err
}
