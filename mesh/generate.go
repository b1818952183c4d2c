package mesh

import (
	"fmt"

	"github.com/notargets/DGLocator/element"
)

// Kuhn decomposition of a unit cube into 6 tets sharing the 0-6 diagonal,
// in hex local vertex numbering. Every cube uses the same orientation, so
// neighbouring cubes produce conforming faces.
var kuhnTets = [][]int{
	{0, 1, 2, 6}, {0, 1, 5, 6}, {0, 3, 2, 6},
	{0, 3, 7, 6}, {0, 4, 5, 6}, {0, 4, 7, 6},
}

// NewLineMesh creates n equal segments spanning [x0, x1]
func NewLineMesh(n int, x0, x1 float64) (*Mesh, error) {
	if n < 1 {
		return nil, fmt.Errorf("need at least one segment, got %d", n)
	}
	verts := make([][]float64, n+1)
	for i := range verts {
		verts[i] = []float64{x0 + (x1-x0)*float64(i)/float64(n)}
	}
	eToV := make([][]int, n)
	for i := range eToV {
		eToV[i] = []int{i, i + 1}
	}
	return NewMesh(1, verts, eToV, nil)
}

// NewQuadMesh creates an nx by ny grid of rectangles over [lo, hi]
func NewQuadMesh(nx, ny int, lo, hi []float64) (*Mesh, error) {
	verts, err := gridVertices([]int{nx, ny}, lo, hi)
	if err != nil {
		return nil, err
	}
	eToV := make([][]int, 0, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			eToV = append(eToV, quadCorners(nx, i, j))
		}
	}
	return NewMesh(2, verts, eToV, nil)
}

// NewTriMesh creates an nx by ny grid of rectangles over [lo, hi], each cut
// into two triangles along its lower-left to upper-right diagonal
func NewTriMesh(nx, ny int, lo, hi []float64) (*Mesh, error) {
	verts, err := gridVertices([]int{nx, ny}, lo, hi)
	if err != nil {
		return nil, err
	}
	eToV := make([][]int, 0, 2*nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			q := quadCorners(nx, i, j)
			eToV = append(eToV,
				[]int{q[0], q[1], q[2]},
				[]int{q[0], q[2], q[3]})
		}
	}
	return NewMesh(2, verts, eToV, nil)
}

// NewHexMesh creates an nx by ny by nz grid of hexahedra over [lo, hi]
func NewHexMesh(nx, ny, nz int, lo, hi []float64) (*Mesh, error) {
	verts, err := gridVertices([]int{nx, ny, nz}, lo, hi)
	if err != nil {
		return nil, err
	}
	eToV := make([][]int, 0, nx*ny*nz)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				eToV = append(eToV, hexCorners(nx, ny, i, j, k))
			}
		}
	}
	return NewMesh(3, verts, eToV, nil)
}

// NewTetMesh creates an nx by ny by nz grid of cubes over [lo, hi], each
// cut into six tetrahedra
func NewTetMesh(nx, ny, nz int, lo, hi []float64) (*Mesh, error) {
	verts, err := gridVertices([]int{nx, ny, nz}, lo, hi)
	if err != nil {
		return nil, err
	}
	eToV := make([][]int, 0, 6*nx*ny*nz)
	types := make([]element.ElementGeometry, 0, 6*nx*ny*nz)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				h := hexCorners(nx, ny, i, j, k)
				for _, tet := range kuhnTets {
					eToV = append(eToV, []int{h[tet[0]], h[tet[1]], h[tet[2]], h[tet[3]]})
					types = append(types, element.Tet)
				}
			}
		}
	}
	return NewMesh(3, verts, eToV, types)
}

// gridVertices lays out (n[0]+1)*(n[1]+1)*... vertices with the first axis
// varying fastest
func gridVertices(n []int, lo, hi []float64) ([][]float64, error) {
	dim := len(n)
	if len(lo) < dim || len(hi) < dim {
		return nil, fmt.Errorf("bounds need %d coordinates", dim)
	}
	total := 1
	for d := 0; d < dim; d++ {
		if n[d] < 1 {
			return nil, fmt.Errorf("need at least one cell along axis %d, got %d", d, n[d])
		}
		if hi[d] <= lo[d] {
			return nil, fmt.Errorf("empty range [%g,%g] along axis %d", lo[d], hi[d], d)
		}
		total *= n[d] + 1
	}

	verts := make([][]float64, total)
	idx := make([]int, dim)
	for v := range verts {
		rem := v
		for d := 0; d < dim; d++ {
			idx[d] = rem % (n[d] + 1)
			rem /= n[d] + 1
		}
		coord := make([]float64, dim)
		for d := 0; d < dim; d++ {
			coord[d] = lo[d] + (hi[d]-lo[d])*float64(idx[d])/float64(n[d])
		}
		verts[v] = coord
	}
	return verts, nil
}

func quadCorners(nx, i, j int) []int {
	v := func(i, j int) int { return j*(nx+1) + i }
	return []int{v(i, j), v(i+1, j), v(i+1, j+1), v(i, j+1)}
}

func hexCorners(nx, ny, i, j, k int) []int {
	v := func(i, j, k int) int { return (k*(ny+1)+j)*(nx+1) + i }
	return []int{
		v(i, j, k), v(i+1, j, k), v(i+1, j+1, k), v(i, j+1, k),
		v(i, j, k+1), v(i+1, j, k+1), v(i+1, j+1, k+1), v(i, j+1, k+1),
	}
}
