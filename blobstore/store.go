package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hupe1980/vecprep/errs"
	"github.com/hupe1980/vecprep/internal/resource"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = os.ErrNotExist

// Store is a destination for published objects.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Put stores size bytes read from r under name. A negative size means
	// unknown. The object is either fully visible or absent.
	Put(ctx context.Context, name string, r io.Reader, size int64) error
}

// DefaultConcurrency is the number of files a Publisher uploads at once.
const DefaultConcurrency = 4

// Publisher uploads local files to a Store.
type Publisher struct {
	Store Store

	// Prefix is prepended to every object name.
	Prefix string

	// Concurrency bounds parallel uploads. Zero means DefaultConcurrency.
	Concurrency int

	// Resources, when set, throttles the bytes read from local files.
	Resources *resource.Controller
}

// Publish uploads every path to store under its base name.
func Publish(ctx context.Context, store Store, paths ...string) error {
	p := &Publisher{Store: store}
	return p.Publish(ctx, paths...)
}

// Publish uploads every path. It stops at the first failure; objects that
// were already uploaded stay in the store.
func (p *Publisher) Publish(ctx context.Context, paths ...string) error {
	if p.Store == nil {
		return errs.Validation("publish", "no store configured")
	}

	limit := p.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, path := range paths {
		g.Go(func() error {
			return p.publishFile(gctx, path)
		})
	}

	return g.Wait()
}

// ObjectName returns the name a local path is published under.
func (p *Publisher) ObjectName(path string) string {
	name := filepath.Base(path)
	if p.Prefix == "" {
		return name
	}
	return p.Prefix + name
}

func (p *Publisher) publishFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return errs.IO("publish", path, err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return errs.IO("publish", path, err)
	}

	var r io.Reader = f
	if p.Resources != nil {
		r = resource.NewRateLimitedReader(ctx, f, p.Resources)
	}

	name := p.ObjectName(path)
	if err := p.Store.Put(ctx, name, r, st.Size()); err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}

	return nil
}
