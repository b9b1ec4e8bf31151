package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hupe1980/vecprep/errs"
	"github.com/hupe1980/vecprep/internal/fs"
)

// LocalStore implements Store on the local file system.
type LocalStore struct {
	root string
	fs   fs.FileSystem
}

// NewLocalStore creates the root directory if needed and returns a store
// rooted there.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := fs.Default.MkdirAll(root, 0o755); err != nil {
		return nil, errs.IO("local store", root, err)
	}
	return &LocalStore{root: root, fs: fs.Default}, nil
}

// Root returns the store directory.
func (s *LocalStore) Root() string { return s.root }

// Path returns the local path of name.
func (s *LocalStore) Path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Put copies r into the store. The object appears under its final name only
// after all bytes are written and synced.
func (s *LocalStore) Put(ctx context.Context, name string, r io.Reader, size int64) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	dst := s.Path(name)
	if err := s.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errs.IO("put", dst, err)
	}

	tmp, err := s.fs.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return errs.IO("put", dst, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = s.fs.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, contextReader{ctx: ctx, r: r})
	if err != nil {
		return errs.IO("put", dst, err)
	}
	if size >= 0 && n != size {
		return errs.IO("put", dst, fmt.Errorf("short copy: wrote %d of %d bytes", n, size))
	}

	if err = tmp.Sync(); err != nil {
		return errs.IO("put", dst, err)
	}
	if err = tmp.Close(); err != nil {
		return errs.IO("put", dst, err)
	}
	if err = s.fs.Chmod(tmp.Name(), 0o644); err != nil {
		return errs.IO("put", dst, err)
	}
	if err = s.fs.Rename(tmp.Name(), dst); err != nil {
		return errs.IO("put", dst, err)
	}

	return nil
}

// Delete removes name from the store.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	err := s.fs.Remove(s.Path(name))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
