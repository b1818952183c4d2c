package locator

import (
	"github.com/notargets/DGLocator/mesh"
)

// cellRange is the part of the box of cells within Chebyshev radius r of a
// center that overlaps the grid
type cellRange struct {
	lo, hi [3]int
}

func (ci *CellIndex) clip(center Cell, r int) cellRange {
	c := [3]int{center.I, center.J, center.K}
	var cr cellRange
	for d := 0; d < 3; d++ {
		if d >= ci.shape.Dim {
			continue
		}
		cr.lo[d] = max(c[d]-r, 0)
		cr.hi[d] = min(c[d]+r, ci.shape.Counts[d]-1)
	}
	return cr
}

// walkShell visits the buckets whose Chebyshev distance from center is
// exactly r, clipped to the grid, in (I,J,K) lexicographic order. Ring 0 is
// the center cell alone. fn returns true to stop the walk; walkShell then
// returns true.
func (ci *CellIndex) walkShell(center Cell, r int, fn func(id mesh.ElementID) bool) bool {
	cr := ci.clip(center, r)
	for i := cr.lo[0]; i <= cr.hi[0]; i++ {
		for j := cr.lo[1]; j <= cr.hi[1]; j++ {
			for k := cr.lo[2]; k <= cr.hi[2]; k++ {
				if r > 0 && i != center.I-r && i != center.I+r &&
					j != center.J-r && j != center.J+r &&
					k != center.K-r && k != center.K+r {
					continue
				}
				for _, id := range ci.buckets[ci.flatten(Cell{i, j, k})] {
					if fn(id) {
						return true
					}
				}
			}
		}
	}
	return false
}

// walkBox visits every bucket within Chebyshev radius r of center
func (ci *CellIndex) walkBox(center Cell, r int, fn func(id mesh.ElementID)) {
	cr := ci.clip(center, r)
	for i := cr.lo[0]; i <= cr.hi[0]; i++ {
		for j := cr.lo[1]; j <= cr.hi[1]; j++ {
			for k := cr.lo[2]; k <= cr.hi[2]; k++ {
				for _, id := range ci.buckets[ci.flatten(Cell{i, j, k})] {
					fn(id)
				}
			}
		}
	}
}

// search runs the ring search for coord starting from its own cell. It
// returns the first element, in shell then bucket order, whose containment
// predicate accepts coord, along with the ring it was found in.
func (ci *CellIndex) search(p mesh.Provider, coord []float64, maxRing int) (id mesh.ElementID, ring int, found bool) {
	center := ci.CellOf(coord)
	for r := 0; r <= maxRing; r++ {
		hit := ci.walkShell(center, r, func(cand mesh.ElementID) bool {
			if p.IsPointInside(cand, coord) {
				id = cand
				return true
			}
			return false
		})
		if hit {
			return id, r, true
		}
	}
	return 0, 0, false
}

// ringBound resolves the configured ring limit against the grid
func ringBound(maxRing int, shape GridShape) int {
	if maxRing <= 0 {
		// unset and AutoRingBound both sweep the grid
		return shape.MaxCount() - 1
	}
	return maxRing
}
