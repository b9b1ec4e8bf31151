package labels

import (
	"iter"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/vecprep/errs"
)

// Index maps each label to the bitmap of rows carrying it.
type Index struct {
	bitmaps map[string]*roaring.Bitmap
	rows    int
}

// NewIndex builds an index over s. Row numbers must fit in uint32.
func NewIndex(s Set) (*Index, error) {
	if uint64(len(s)) > 1<<32 {
		return nil, errs.Validation("label index", "%d rows exceed uint32 row ids", len(s))
	}
	idx := &Index{bitmaps: make(map[string]*roaring.Bitmap), rows: len(s)}
	for i, l := range s {
		bm, ok := idx.bitmaps[l]
		if !ok {
			bm = roaring.New()
			idx.bitmaps[l] = bm
		}
		bm.Add(uint32(i))
	}
	for _, bm := range idx.bitmaps {
		bm.RunOptimize()
	}
	return idx, nil
}

// Len returns the number of indexed rows.
func (idx *Index) Len() int { return idx.rows }

// Labels returns the distinct labels in sorted order.
func (idx *Index) Labels() []string {
	out := make([]string, 0, len(idx.bitmaps))
	for l := range idx.bitmaps {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Bitmap returns the rows carrying label, or nil if none do. The bitmap is
// shared and must not be modified.
func (idx *Index) Bitmap(label string) *roaring.Bitmap {
	return idx.bitmaps[label]
}

// Count returns the number of rows carrying label.
func (idx *Index) Count(label string) int {
	bm := idx.bitmaps[label]
	if bm == nil {
		return 0
	}
	return int(bm.GetCardinality())
}

// Rows yields the rows carrying label in ascending order.
func (idx *Index) Rows(label string) iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		bm := idx.bitmaps[label]
		if bm == nil {
			return
		}
		it := bm.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}
