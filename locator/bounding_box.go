package locator

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/DGLocator/mesh"
)

// BoundingBox is the axis aligned [Min,Max] hull of a set of points, one
// entry per active dimension
type BoundingBox struct {
	Min, Max []float64
}

// BuildBoundingBox computes the hull of the first dim components of coords.
// The result does not depend on the order of coords.
func BuildBoundingBox(dim int, coords [][]float64) (BoundingBox, error) {
	if dim < 1 || dim > 3 {
		return BoundingBox{}, fmt.Errorf("%w: dimension %d", ErrDimensionMismatch, dim)
	}
	if len(coords) == 0 {
		return BoundingBox{}, ErrEmptyGeometry
	}
	box := newEmptyBox(dim)
	for i, c := range coords {
		if len(c) < dim {
			return BoundingBox{}, fmt.Errorf("%w: point %d has %d components, need %d",
				ErrDimensionMismatch, i, len(c), dim)
		}
		box.grow(c)
	}
	return box, nil
}

// BoundingBoxFromProvider computes the hull of every node of every element
func BoundingBoxFromProvider(p mesh.Provider) (BoundingBox, error) {
	if p == nil {
		return BoundingBox{}, ErrNotConfigured
	}
	dim := p.Dimension()
	if dim < 1 || dim > 3 {
		return BoundingBox{}, fmt.Errorf("%w: dimension %d", ErrDimensionMismatch, dim)
	}
	if p.NumElements() == 0 {
		return BoundingBox{}, ErrEmptyGeometry
	}
	box := newEmptyBox(dim)
	for k := 0; k < p.NumElements(); k++ {
		for _, node := range p.ElementNodes(mesh.ElementID(k)) {
			if len(node) < dim {
				return BoundingBox{}, fmt.Errorf("%w: element %d has a %d component node",
					ErrDimensionMismatch, k, len(node))
			}
			box.grow(node)
		}
	}
	return box, nil
}

func newEmptyBox(dim int) BoundingBox {
	box := BoundingBox{Min: make([]float64, dim), Max: make([]float64, dim)}
	for d := 0; d < dim; d++ {
		box.Min[d] = math.Inf(1)
		box.Max[d] = math.Inf(-1)
	}
	return box
}

func (b *BoundingBox) grow(c []float64) {
	for d := range b.Min {
		b.Min[d] = math.Min(b.Min[d], c[d])
		b.Max[d] = math.Max(b.Max[d], c[d])
	}
}

func (b BoundingBox) Dim() int { return len(b.Min) }

func (b BoundingBox) Extent(d int) float64 { return b.Max[d] - b.Min[d] }

// Volume is the product of the extents of all axes, zero for a flat box
func (b BoundingBox) Volume() float64 {
	v := 1.
	for d := range b.Min {
		v *= b.Extent(d)
	}
	return v
}

// Contains reports whether coord lies inside the closed box
func (b BoundingBox) Contains(coord []float64) bool {
	if len(coord) < b.Dim() {
		return false
	}
	for d := range b.Min {
		if !(coord[d] >= b.Min[d] && coord[d] <= b.Max[d]) {
			return false
		}
	}
	return true
}

func (b BoundingBox) String() string {
	var sb strings.Builder
	for d := range b.Min {
		if d > 0 {
			sb.WriteString(" x ")
		}
		fmt.Fprintf(&sb, "[%g,%g]", b.Min[d], b.Max[d])
	}
	return sb.String()
}
