package groundtruth

import (
	"math"

	"github.com/hupe1980/vecprep/vecfile"
)

// Padding fills index slots of a filtered query with fewer than K candidates.
// Its distance is +Inf.
const Padding = math.MaxUint32

// NeighborMatrix holds K neighbors per query, nearest first, row-major.
type NeighborMatrix struct {
	Queries   int
	K         int
	Indices   []uint32
	Distances []float32
}

// Row returns the neighbor indices of query i.
func (nm NeighborMatrix) Row(i int) []uint32 {
	return nm.Indices[i*nm.K : (i+1)*nm.K : (i+1)*nm.K]
}

// DistanceRow returns the neighbor distances of query i.
func (nm NeighborMatrix) DistanceRow(i int) []float32 {
	return nm.Distances[i*nm.K : (i+1)*nm.K : (i+1)*nm.K]
}

// IndexMatrix returns the indices as a Q×K matrix sharing storage.
func (nm NeighborMatrix) IndexMatrix() vecfile.Matrix[uint32] {
	return vecfile.Matrix[uint32]{Rows: nm.Queries, Cols: nm.K, Data: nm.Indices}
}

// DistanceMatrix returns the distances as a Q×K matrix sharing storage.
func (nm NeighborMatrix) DistanceMatrix() vecfile.Matrix[float32] {
	return vecfile.Matrix[float32]{Rows: nm.Queries, Cols: nm.K, Data: nm.Distances}
}

// WriteFile writes the indices as a uint32 vector file.
func WriteFile(path string, nm NeighborMatrix) error {
	return vecfile.WriteFile(path, nm.IndexMatrix())
}

// WriteDistances writes the distances as a float32 vector file.
func WriteDistances(path string, nm NeighborMatrix) error {
	return vecfile.WriteFile(path, nm.DistanceMatrix())
}

// ReadFile reads a ground-truth index file. Distances are not stored in it
// and are left nil.
func ReadFile(path string) (NeighborMatrix, error) {
	m, err := vecfile.ReadFile[uint32](path)
	if err != nil {
		return NeighborMatrix{}, err
	}
	return NeighborMatrix{Queries: m.Rows, K: m.Cols, Indices: m.Data}, nil
}
