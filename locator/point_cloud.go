package locator

import (
	"fmt"
	"math"

	"github.com/notargets/DGLocator/mesh"
	"gonum.org/v1/gonum/floats"
)

// PointCloud collects the elements registered in a growing box of cells
// around the cell of coord, until at least minCount elements are collected or
// the box covers the whole grid. minCount <= 0 selects 3^dim. Points outside
// the bounding box start from the nearest boundary cell.
func (l *Locator) PointCloud(coord []float64, minCount int) ([]mesh.ElementID, error) {
	s, err := l.current()
	if err != nil {
		return nil, err
	}
	return s.index.pointCloud(coord, minCount)
}

func (ci *CellIndex) pointCloud(coord []float64, minCount int) ([]mesh.ElementID, error) {
	dim := ci.shape.Dim
	if len(coord) < dim {
		return nil, fmt.Errorf("%w: %d component point in a %dD mesh",
			ErrDimensionMismatch, len(coord), dim)
	}
	if minCount <= 0 {
		minCount = int(math.Pow(3, float64(dim)))
	}
	minCount = min(minCount, ci.total)

	center := ci.CellOf(coord)
	var cloud []mesh.ElementID
	for r := 0; r < ci.shape.MaxCount(); r++ {
		cloud = cloud[:0]
		ci.walkBox(center, r, func(id mesh.ElementID) {
			cloud = append(cloud, id)
		})
		if len(cloud) >= minCount {
			break
		}
	}
	return cloud, nil
}

// Nearest returns the element of the default point cloud around coord whose
// centroid is closest to coord. It is meant as a fallback for points that
// Locate rejects, e.g. points a round-off outside the mesh.
func (l *Locator) Nearest(coord []float64) (mesh.ElementID, error) {
	s, err := l.current()
	if err != nil {
		return 0, err
	}
	cloud, err := s.index.pointCloud(coord, 0)
	if err != nil {
		return 0, err
	}
	dim := s.index.shape.Dim
	best, bestDist := cloud[0], math.Inf(1)
	for _, id := range cloud {
		if d := floats.Distance(s.provider.Centroid(id)[:dim], coord[:dim], 2); d < bestDist {
			best, bestDist = id, d
		}
	}
	return best, nil
}
