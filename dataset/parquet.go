package dataset

import (
	"errors"
	"io"
	"os"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"github.com/hupe1980/vecprep/errs"
	"github.com/hupe1980/vecprep/labels"
	"github.com/hupe1980/vecprep/vecfile"
)

// DefaultVectorColumn is the parquet column read when none is named.
const DefaultVectorColumn = "vector"

// readBatch is the number of rows pulled from a row group at a time.
const readBatch = 256

// EmbeddingRecord is the row layout written by WriteParquet.
type EmbeddingRecord struct {
	Vector []float32 `parquet:"vector"`
	Label  string    `parquet:"label"`
}

// LoadParquet reads vectorColumn (a repeated or LIST float/double column) and,
// if labelColumn is not empty, a string or integer label column. Every row
// must hold a vector of the same width.
func LoadParquet(path, vectorColumn, labelColumn string) (vecfile.Matrix[float32], labels.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return vecfile.Matrix[float32]{}, nil, errs.IO("read parquet", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return vecfile.Matrix[float32]{}, nil, errs.IO("read parquet", path, err)
	}

	pf, err := parquet.OpenFile(f, fi.Size())
	if err != nil {
		return vecfile.Matrix[float32]{}, nil, errs.Format("read parquet", "%v", err).WithPath(path)
	}

	m, lbls, err := readParquet(pf, vectorColumn, labelColumn)
	if err != nil {
		var e *errs.Error
		if errors.As(err, &e) && e.Path == "" {
			e.Path = path
		}
		return vecfile.Matrix[float32]{}, nil, err
	}
	return m, lbls, nil
}

func lookupColumn(schema *parquet.Schema, name string) (parquet.LeafColumn, bool) {
	if leaf, ok := schema.Lookup(name); ok {
		return leaf, true
	}
	return schema.Lookup(name, "list", "element")
}

func readParquet(pf *parquet.File, vectorColumn, labelColumn string) (vecfile.Matrix[float32], labels.Set, error) {
	vecLeaf, ok := lookupColumn(pf.Schema(), vectorColumn)
	if !ok {
		return vecfile.Matrix[float32]{}, nil, errs.Validation("read parquet", "no vector column %q", vectorColumn)
	}
	labelIdx := -1
	if labelColumn != "" {
		leaf, ok := lookupColumn(pf.Schema(), labelColumn)
		if !ok {
			return vecfile.Matrix[float32]{}, nil, errs.Validation("read parquet", "no label column %q", labelColumn)
		}
		labelIdx = leaf.ColumnIndex
	}

	total := pf.NumRows()
	var (
		data []float32
		lbls labels.Set
		cols = -1
		row  int64
	)
	if labelIdx >= 0 {
		lbls = make(labels.Set, 0, total)
	}

	buf := make([]parquet.Row, readBatch)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, r := range buf[:n] {
				start := len(data)
				label, hasLabel := "", false
				for _, v := range r {
					switch v.Column() {
					case vecLeaf.ColumnIndex:
						if v.IsNull() {
							continue
						}
						x, ok := floatValue(v)
						if !ok {
							_ = rows.Close()
							return vecfile.Matrix[float32]{}, nil, errs.Format("read parquet", "vector column %q has %v values", vectorColumn, v.Kind())
						}
						data = append(data, x)
					case labelIdx:
						label, hasLabel = labelValue(v)
					}
				}

				width := len(data) - start
				if cols < 0 {
					// The first row fixes the width; size the buffer for all rows.
					cols = width
					if want := int64(cols) * total; int64(cap(data)) < want {
						grown := make([]float32, len(data), want)
						copy(grown, data)
						data = grown
					}
				} else if width != cols {
					_ = rows.Close()
					return vecfile.Matrix[float32]{}, nil, errs.Format("read parquet", "row %d has %d elements, want %d", row, width, cols)
				}
				if labelIdx >= 0 {
					if !hasLabel {
						_ = rows.Close()
						return vecfile.Matrix[float32]{}, nil, errs.Format("read parquet", "row %d has no label", row)
					}
					lbls = append(lbls, label)
				}
				row++
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				_ = rows.Close()
				return vecfile.Matrix[float32]{}, nil, errs.Format("read parquet", "%v", err)
			}
		}
		if err := rows.Close(); err != nil {
			return vecfile.Matrix[float32]{}, nil, errs.IO("read parquet", "", err)
		}
	}

	m := vecfile.Matrix[float32]{Rows: int(row), Cols: max(cols, 0), Data: data}
	if len(m.Data) == 0 {
		m.Data = nil
	}
	return m, lbls, nil
}

func floatValue(v parquet.Value) (float32, bool) {
	switch v.Kind() {
	case parquet.Float:
		return v.Float(), true
	case parquet.Double:
		return float32(v.Double()), true
	default:
		return 0, false
	}
}

func labelValue(v parquet.Value) (string, bool) {
	if v.IsNull() {
		return "", false
	}
	switch v.Kind() {
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray()), true
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10), true
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10), true
	default:
		return v.String(), true
	}
}

// WriteParquet writes m and lbls as EmbeddingRecord rows with zstd
// compression. lbls may be nil.
func WriteParquet(path string, m vecfile.Matrix[float32], lbls labels.Set) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if lbls != nil && len(lbls) != m.Rows {
		return errs.Validation("write parquet", "%d labels for %d rows", len(lbls), m.Rows)
	}

	f, err := os.Create(path)
	if err != nil {
		return errs.IO("write parquet", path, err)
	}
	defer f.Close()

	pw := parquet.NewGenericWriter[EmbeddingRecord](f, parquet.Compression(&parquet.Zstd))
	records := make([]EmbeddingRecord, 0, readBatch)
	for i := range m.Rows {
		rec := EmbeddingRecord{Vector: m.Row(i)}
		if lbls != nil {
			rec.Label = lbls[i]
		}
		records = append(records, rec)
		if len(records) == cap(records) || i == m.Rows-1 {
			if _, err := pw.Write(records); err != nil {
				_ = pw.Close()
				return errs.IO("write parquet", path, err)
			}
			records = records[:0]
		}
	}
	if err := pw.Close(); err != nil {
		return errs.IO("write parquet", path, err)
	}
	if err := f.Close(); err != nil {
		return errs.IO("write parquet", path, err)
	}
	return nil
}
