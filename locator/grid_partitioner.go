package locator

import (
	"fmt"
	"math"
)

// GridOptions selects between an explicit cell count per axis and a density
// target. Non-empty CellCounts win.
type GridOptions struct {
	CellCounts      []int
	ElementsPerCell float64
}

// GridShape is the resolution of the uniform grid. Axes at or above Dim, and
// axes along which the box is flat, have a single cell.
type GridShape struct {
	Dim    int
	Counts [3]int
	Widths [3]float64
}

func (s GridShape) NumCells() int {
	return s.Counts[0] * s.Counts[1] * s.Counts[2]
}

// MaxCount is the largest per-axis cell count
func (s GridShape) MaxCount() int {
	return max(s.Counts[0], s.Counts[1], s.Counts[2])
}

func (s GridShape) String() string {
	switch s.Dim {
	case 1:
		return fmt.Sprintf("%d cells, width %g", s.Counts[0], s.Widths[0])
	case 2:
		return fmt.Sprintf("%dx%d cells, widths %gx%g",
			s.Counts[0], s.Counts[1], s.Widths[0], s.Widths[1])
	}
	return fmt.Sprintf("%dx%dx%d cells, widths %gx%gx%g",
		s.Counts[0], s.Counts[1], s.Counts[2], s.Widths[0], s.Widths[1], s.Widths[2])
}

// PartitionGrid sizes a uniform grid over box for numElements elements.
//
// Without explicit counts the target cell edge is
//
//	L = (V/N)^(1/D) * ElementsPerCell
//
// where V and D only count the axes with a non-zero extent, and each axis gets
// ceil(extent/L) cells, at least one.
func PartitionGrid(box BoundingBox, numElements int, opts GridOptions) (GridShape, error) {
	dim := box.Dim()
	if dim < 1 || dim > 3 || len(box.Max) != dim {
		return GridShape{}, fmt.Errorf("%w: bounding box of dimension %d", ErrDimensionMismatch, dim)
	}
	if numElements <= 0 {
		return GridShape{}, ErrEmptyGeometry
	}

	shape := GridShape{Dim: dim, Counts: [3]int{1, 1, 1}}

	if len(opts.CellCounts) > 0 {
		if len(opts.CellCounts) < dim {
			return GridShape{}, fmt.Errorf("%w: %d cell counts for a %dD box",
				ErrInvalidGrid, len(opts.CellCounts), dim)
		}
		for d := 0; d < dim; d++ {
			if opts.CellCounts[d] < 1 {
				return GridShape{}, fmt.Errorf("%w: cell count %d along axis %d",
					ErrInvalidGrid, opts.CellCounts[d], d)
			}
			if box.Extent(d) == 0 {
				// a flat axis has nothing to split
				continue
			}
			shape.Counts[d] = opts.CellCounts[d]
			shape.Widths[d] = box.Extent(d) / float64(shape.Counts[d])
		}
		return shape, nil
	}

	density := opts.ElementsPerCell
	if !(density > 0) || math.IsInf(density, 1) {
		return GridShape{}, fmt.Errorf("%w: elements per cell %g", ErrInvalidGrid, density)
	}

	var (
		volume = 1.
		active int
	)
	for d := 0; d < dim; d++ {
		if box.Extent(d) > 0 {
			volume *= box.Extent(d)
			active++
		}
	}
	if active == 0 {
		// Every node coincides, a single cell holds everything
		return shape, nil
	}

	edge := math.Pow(volume/float64(numElements), 1./float64(active)) * density
	for d := 0; d < dim; d++ {
		extent := box.Extent(d)
		if extent == 0 {
			continue
		}
		shape.Counts[d] = max(1, int(math.Ceil(extent/edge)))
		shape.Widths[d] = extent / float64(shape.Counts[d])
	}
	return shape, nil
}
