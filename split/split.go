package split

import (
	"context"
	"errors"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/hupe1980/vecprep/errs"
	"github.com/hupe1980/vecprep/internal/fs"
	"github.com/hupe1980/vecprep/labels"
	"github.com/hupe1980/vecprep/vecfile"
)

// cancelCheckInterval is how many rows are copied between context checks.
const cancelCheckInterval = 4096

// Paths names the four outputs of a split.
type Paths struct {
	TrainVectors string
	TestVectors  string
	TrainLabels  string
	TestLabels   string
}

// All returns the paths in a fixed order.
func (p Paths) All() []string {
	return []string{p.TrainVectors, p.TestVectors, p.TrainLabels, p.TestLabels}
}

// DerivePaths derives output names from input by dropping its extension:
// <base>_train.bin, <base>_test.bin, <base>_train_labels.txt and
// <base>_test_labels.txt.
func DerivePaths(input string) Paths {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return Paths{
		TrainVectors: base + "_train.bin",
		TestVectors:  base + "_test.bin",
		TrainLabels:  base + "_train_labels.txt",
		TestLabels:   base + "_test_labels.txt",
	}
}

// FractionFromPercent converts a train percentage to a fraction.
func FractionFromPercent(pct float64) float64 { return pct / 100 }

// ValidateFraction rejects p outside (0, 1].
func ValidateFraction(p float64) error {
	if math.IsNaN(p) || p <= 0 || p > 1 {
		return errs.Validation("split", "fraction %v outside (0, 1]", p)
	}
	return nil
}

// Counts returns the train and test row counts for n rows and fraction p.
// train is float64(n)*p truncated toward zero, so a percent that is not
// exact in binary rounds down: 29% of 100 rows is 28.
func Counts(n int, p float64) (train, test int, err error) {
	if n < 0 {
		return 0, 0, errs.Validation("split", "negative row count %d", n)
	}
	if err := ValidateFraction(p); err != nil {
		return 0, 0, err
	}
	train = int(float64(n) * p)
	return train, n - train, nil
}

// Option configures Split and SplitFile.
type Option func(*options)

type options struct {
	fs fs.FileSystem
}

// WithFileSystem routes the output files through fsys.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fs = fsys
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{fs: fs.Default}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// Result describes a completed split.
type Result struct {
	Rows  int
	Cols  int
	Train int
	Test  int
	Paths Paths
}

// Split streams src into train and test shards written to paths. lbls must
// hold exactly one label per source row; this and p are checked before any
// output file is created.
func Split(ctx context.Context, src *vecfile.Reader[float32], lbls labels.Set, p float64, paths Paths, optFns ...Option) (Result, error) {
	o := applyOptions(optFns)
	h := src.Header()
	n := int(h.Rows)
	if len(lbls) != n {
		return Result{}, errs.Validation("split", "label count %d does not match row count %d", len(lbls), n)
	}
	train, test, err := Counts(n, p)
	if err != nil {
		return Result{}, err
	}

	out, err := createOutputs(o.fs, paths, uint32(train), uint32(test), h.Cols)
	if err != nil {
		return Result{}, err
	}

	if err := copyRows(ctx, src, lbls, train, out); err != nil {
		out.abort()
		return Result{}, err
	}
	if err := src.Finish(); err != nil {
		out.abort()
		return Result{}, err
	}
	if err := out.commit(); err != nil {
		return Result{}, err
	}

	return Result{Rows: n, Cols: int(h.Cols), Train: train, Test: test, Paths: paths}, nil
}

// SplitFile splits the vector file at input using the label file at
// labelPath.
func SplitFile(ctx context.Context, input, labelPath string, p float64, paths Paths, optFns ...Option) (Result, error) {
	if err := ValidateFraction(p); err != nil {
		return Result{}, err
	}
	lbls, err := labels.Read(labelPath)
	if err != nil {
		return Result{}, err
	}
	fr, err := vecfile.Open[float32](input)
	if err != nil {
		return Result{}, err
	}
	defer fr.Close()

	res, err := Split(ctx, fr.Reader, lbls, p, paths, optFns...)
	if err != nil {
		var e *errs.Error
		if errors.As(err, &e) && e.Path == "" {
			e.Path = input
		}
		return Result{}, err
	}
	return res, nil
}

func copyRows(ctx context.Context, src *vecfile.Reader[float32], lbls labels.Set, train int, out *outputs) error {
	row := make([]byte, src.Header().RowBytes())
	for i := range lbls {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		err := src.ReadRawRow(row)
		if errors.Is(err, io.EOF) {
			return errs.Format("split", "payload ended after %d of %d rows", i, len(lbls))
		}
		if err != nil {
			return err
		}

		vw, lw := out.testVec, out.testLbl
		if i < train {
			vw, lw = out.trainVec, out.trainLbl
		}
		if err := vw.WriteRawRow(row); err != nil {
			return err
		}
		if err := lw.Write(lbls[i]); err != nil {
			return err
		}
	}
	return nil
}

type outputs struct {
	fsys     fs.FileSystem
	trainVec *vecfile.FileWriter[float32]
	testVec  *vecfile.FileWriter[float32]
	trainLbl *labels.FileWriter
	testLbl  *labels.FileWriter
}

func createOutputs(fsys fs.FileSystem, paths Paths, train, test, cols uint32) (*outputs, error) {
	out := &outputs{fsys: fsys}
	var err error
	if out.trainVec, err = vecfile.CreateFS[float32](fsys, paths.TrainVectors, vecfile.Header{Rows: train, Cols: cols}); err != nil {
		out.abort()
		return nil, err
	}
	if out.testVec, err = vecfile.CreateFS[float32](fsys, paths.TestVectors, vecfile.Header{Rows: test, Cols: cols}); err != nil {
		out.abort()
		return nil, err
	}
	if out.trainLbl, err = labels.CreateFS(fsys, paths.TrainLabels); err != nil {
		out.abort()
		return nil, err
	}
	if out.testLbl, err = labels.CreateFS(fsys, paths.TestLabels); err != nil {
		out.abort()
		return nil, err
	}
	return out, nil
}

// commit flushes all four files before renaming any of them. If a rename
// fails, files already moved into place are removed again.
func (o *outputs) commit() error {
	closers := []func() error{o.trainVec.Close, o.testVec.Close, o.trainLbl.Close, o.testLbl.Close}
	for _, c := range closers {
		if err := c(); err != nil {
			o.abort()
			return err
		}
	}

	commits := []struct {
		path   string
		commit func() error
	}{
		{o.trainVec.Path(), o.trainVec.Commit},
		{o.testVec.Path(), o.testVec.Commit},
		{o.trainLbl.Path(), o.trainLbl.Commit},
		{o.testLbl.Path(), o.testLbl.Commit},
	}
	for i, c := range commits {
		if err := c.commit(); err != nil {
			for _, done := range commits[:i] {
				_ = o.fsys.Remove(done.path)
			}
			o.abort()
			return err
		}
	}
	return nil
}

func (o *outputs) abort() {
	if o.trainVec != nil {
		o.trainVec.Abort()
	}
	if o.testVec != nil {
		o.testVec.Abort()
	}
	if o.trainLbl != nil {
		o.trainLbl.Abort()
	}
	if o.testLbl != nil {
		o.testLbl.Abort()
	}
}
