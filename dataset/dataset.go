package dataset

import (
	"fmt"
	"strings"

	"github.com/hupe1980/vecprep/distance"
	"github.com/hupe1980/vecprep/errs"
	"github.com/hupe1980/vecprep/labels"
	"github.com/hupe1980/vecprep/vecfile"
)

// Dataset is a base set and a query set with optional labels.
type Dataset struct {
	Name        string
	Base        vecfile.Matrix[float32]
	Query       vecfile.Matrix[float32]
	BaseLabels  labels.Set
	QueryLabels labels.Set
}

// Labeled reports whether both sets carry labels.
func (d Dataset) Labeled() bool {
	return d.BaseLabels != nil && d.QueryLabels != nil
}

// Validate checks shapes and label counts.
func (d Dataset) Validate() error {
	if err := d.Base.Validate(); err != nil {
		return err
	}
	if err := d.Query.Validate(); err != nil {
		return err
	}
	if d.Base.Rows > 0 && d.Query.Rows > 0 && d.Base.Cols != d.Query.Cols {
		return errs.Validation("dataset", "base dimension %d does not match query dimension %d", d.Base.Cols, d.Query.Cols)
	}
	if d.BaseLabels != nil && len(d.BaseLabels) != d.Base.Rows {
		return errs.Validation("dataset", "%d base labels for %d base rows", len(d.BaseLabels), d.Base.Rows)
	}
	if d.QueryLabels != nil && len(d.QueryLabels) != d.Query.Rows {
		return errs.Validation("dataset", "%d query labels for %d query rows", len(d.QueryLabels), d.Query.Rows)
	}
	return nil
}

// Normalize scales every base and query row to unit L2 norm in place.
func (d *Dataset) Normalize(eps float64) {
	distance.NormalizeRows(d.Base.Data, d.Base.Cols, eps)
	distance.NormalizeRows(d.Query.Data, d.Query.Cols, eps)
}

// Kind names a loader.
type Kind string

const (
	KindCIFAR10 Kind = "cifar10"
	KindParquet Kind = "parquet"
	KindFvecs   Kind = "fvecs"
)

// ParseKind parses a loader name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindCIFAR10, KindParquet, KindFvecs:
		return k, nil
	default:
		return "", fmt.Errorf("unknown dataset kind %q", s)
	}
}

// Source describes where to load a dataset from.
type Source struct {
	Kind Kind
	// Name prefixes output files. Defaults to the kind.
	Name string
	// Path is the CIFAR-10 batch directory or the base file.
	Path string
	// QueryPath is the query file for parquet and fvecs sources.
	QueryPath string
	// VectorColumn and LabelColumn select parquet columns.
	VectorColumn string
	LabelColumn  string
	// BaseLabels and QueryLabels are label files for fvecs sources.
	BaseLabels  string
	QueryLabels string
}

// Load loads the dataset described by src.
func Load(src Source) (Dataset, error) {
	var (
		d   Dataset
		err error
	)
	switch src.Kind {
	case KindCIFAR10:
		d, err = LoadCIFAR10(src.Path)
	case KindParquet:
		d, err = loadParquetPair(src)
	case KindFvecs:
		d, err = loadFvecsPair(src)
	default:
		return Dataset{}, errs.Validation("load dataset", "unknown dataset kind %q", src.Kind)
	}
	if err != nil {
		return Dataset{}, err
	}

	d.Name = src.Name
	if d.Name == "" {
		d.Name = string(src.Kind)
	}
	if err := d.Validate(); err != nil {
		return Dataset{}, err
	}
	return d, nil
}

func loadParquetPair(src Source) (Dataset, error) {
	if src.QueryPath == "" {
		return Dataset{}, errs.Validation("load dataset", "parquet source needs a query file")
	}
	vecCol := src.VectorColumn
	if vecCol == "" {
		vecCol = DefaultVectorColumn
	}
	base, baseLabels, err := LoadParquet(src.Path, vecCol, src.LabelColumn)
	if err != nil {
		return Dataset{}, err
	}
	query, queryLabels, err := LoadParquet(src.QueryPath, vecCol, src.LabelColumn)
	if err != nil {
		return Dataset{}, err
	}
	return Dataset{Base: base, Query: query, BaseLabels: baseLabels, QueryLabels: queryLabels}, nil
}

func loadFvecsPair(src Source) (Dataset, error) {
	if src.QueryPath == "" {
		return Dataset{}, errs.Validation("load dataset", "fvecs source needs a query file")
	}
	base, err := LoadFvecs(src.Path)
	if err != nil {
		return Dataset{}, err
	}
	query, err := LoadFvecs(src.QueryPath)
	if err != nil {
		return Dataset{}, err
	}
	d := Dataset{Base: base, Query: query}
	if src.BaseLabels != "" {
		if d.BaseLabels, err = labels.Read(src.BaseLabels); err != nil {
			return Dataset{}, err
		}
	}
	if src.QueryLabels != "" {
		if d.QueryLabels, err = labels.Read(src.QueryLabels); err != nil {
			return Dataset{}, err
		}
	}
	return d, nil
}
