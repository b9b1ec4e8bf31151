package vecprep

import (
	"context"
	"os"
	"time"

	"github.com/hupe1980/vecprep/internal/fs"
	"github.com/hupe1980/vecprep/labels"
	"github.com/hupe1980/vecprep/vecfile"
)

type stagedFile interface {
	Path() string
	Close() error
	Commit() error
	Abort()
}

type stagedEntry struct {
	file       stagedFile
	rows, cols int
}

// staging collects temp files that become visible together on commit.
type staging struct {
	fs      fs.FileSystem
	entries []stagedEntry
	start   time.Time
}

func newStaging(fsys fs.FileSystem) *staging {
	return &staging{fs: fsys, start: time.Now()}
}

func stageMatrix[T vecfile.Element](st *staging, path string, m vecfile.Matrix[T]) error {
	h, err := m.Header()
	if err != nil {
		return err
	}
	fw, err := vecfile.CreateFS[T](st.fs, path, h)
	if err != nil {
		return err
	}
	st.entries = append(st.entries, stagedEntry{file: fw, rows: m.Rows, cols: m.Cols})
	return fw.WriteMatrix(m)
}

func stageLabels(st *staging, path string, s labels.Set) error {
	fw, err := labels.CreateFS(st.fs, path)
	if err != nil {
		return err
	}
	st.entries = append(st.entries, stagedEntry{file: fw, rows: len(s), cols: 1})
	for _, l := range s {
		if err := fw.Write(l); err != nil {
			return err
		}
	}
	return nil
}

// commit flushes every file before renaming any of them. If a rename fails,
// files already moved into place are removed again.
func (st *staging) commit() error {
	for _, e := range st.entries {
		if err := e.file.Close(); err != nil {
			st.abort()
			return err
		}
	}
	for i, e := range st.entries {
		if err := e.file.Commit(); err != nil {
			for _, done := range st.entries[:i] {
				_ = st.fs.Remove(done.file.Path())
			}
			st.abort()
			return err
		}
	}
	return nil
}

func (st *staging) abort() {
	for _, e := range st.entries {
		e.file.Abort()
	}
}

func (st *staging) paths() []string {
	out := make([]string, len(st.entries))
	for i, e := range st.entries {
		out[i] = e.file.Path()
	}
	return out
}

// report records every committed file with the logger and metrics collector.
func (st *staging) report(ctx context.Context, o *options) {
	elapsed := time.Since(st.start)
	for _, e := range st.entries {
		path := e.file.Path()
		var size int64
		fi, err := os.Stat(path)
		if err == nil {
			size = fi.Size()
		}
		o.metricsCollector.RecordWrite(size, elapsed, err)
		o.logger.LogWrite(ctx, path, e.rows, e.cols, err)
	}
}
