package locator

import (
	"fmt"
	"math"

	"github.com/notargets/DGLocator/mesh"
)

// Cell addresses one bucket of the grid. Unused axes stay at zero.
type Cell struct {
	I, J, K int
}

// Entry is an element reference with its centroid, the unit a CellIndex is
// built from
type Entry struct {
	ID       mesh.ElementID
	Centroid []float64
}

// CellIndex is the uniform grid of element buckets. All buckets live in one
// flat slice addressed by (I*N1 + J)*N2 + K. It is immutable once built.
type CellIndex struct {
	box     BoundingBox
	shape   GridShape
	buckets [][]mesh.ElementID
	total   int
}

// NewCellIndex drops every entry into the cell containing its centroid
func NewCellIndex(box BoundingBox, shape GridShape, entries []Entry) (*CellIndex, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyGeometry
	}
	if shape.Dim != box.Dim() {
		return nil, fmt.Errorf("%w: %dD grid over a %dD box", ErrDimensionMismatch, shape.Dim, box.Dim())
	}
	for d := 0; d < 3; d++ {
		if shape.Counts[d] < 1 || (d >= shape.Dim && shape.Counts[d] != 1) {
			return nil, fmt.Errorf("%w: %d cells along axis %d", ErrInvalidGrid, shape.Counts[d], d)
		}
	}

	ci := &CellIndex{
		box:     box,
		shape:   shape,
		buckets: make([][]mesh.ElementID, shape.NumCells()),
	}
	for _, e := range entries {
		if len(e.Centroid) < shape.Dim {
			return nil, fmt.Errorf("%w: element %d centroid has %d components",
				ErrDimensionMismatch, e.ID, len(e.Centroid))
		}
		n := ci.flatten(ci.CellOf(e.Centroid))
		ci.buckets[n] = append(ci.buckets[n], e.ID)
	}
	ci.total = len(entries)
	return ci, nil
}

func (ci *CellIndex) Box() BoundingBox { return ci.box }
func (ci *CellIndex) Shape() GridShape { return ci.shape }

// TotalEntries is the number of element references across all buckets
func (ci *CellIndex) TotalEntries() int { return ci.total }

func (ci *CellIndex) flatten(c Cell) int {
	return (c.I*ci.shape.Counts[1]+c.J)*ci.shape.Counts[2] + c.K
}

// CellOf maps coord to its cell with a floor per axis, clamped to the grid so
// that points on the upper faces of the box land in the last cell
func (ci *CellIndex) CellOf(coord []float64) Cell {
	var idx [3]int
	for d := 0; d < ci.shape.Dim; d++ {
		w := ci.shape.Widths[d]
		if w <= 0 {
			continue
		}
		f := math.Floor((coord[d] - ci.box.Min[d]) / w)
		switch {
		case math.IsNaN(f) || f < 0:
			idx[d] = 0
		case f > float64(ci.shape.Counts[d]-1):
			idx[d] = ci.shape.Counts[d] - 1
		default:
			idx[d] = int(f)
		}
	}
	return Cell{I: idx[0], J: idx[1], K: idx[2]}
}

// InGrid reports whether c addresses an existing bucket
func (ci *CellIndex) InGrid(c Cell) bool {
	return c.I >= 0 && c.I < ci.shape.Counts[0] &&
		c.J >= 0 && c.J < ci.shape.Counts[1] &&
		c.K >= 0 && c.K < ci.shape.Counts[2]
}

// Bucket returns the elements registered in c, in insertion order. The slice
// must not be modified.
func (ci *CellIndex) Bucket(c Cell) []mesh.ElementID {
	if !ci.InGrid(c) {
		return nil
	}
	return ci.buckets[ci.flatten(c)]
}

// Occupancy returns the size of every bucket in flat order
func (ci *CellIndex) Occupancy() []int {
	sizes := make([]int, len(ci.buckets))
	for n, b := range ci.buckets {
		sizes[n] = len(b)
	}
	return sizes
}
