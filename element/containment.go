package element

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Tolerance is the slack allowed on reference coordinates when deciding
// whether a point sits inside an element. Points on a shared face are
// therefore inside both neighbours; callers break the tie by search order.
const Tolerance = 1.e-10

const (
	newtonMaxIter = 25
	newtonDiverge = 10. // |xi| beyond this is treated as far outside
)

// Sub-tet decompositions, in local vertex numbering
var (
	prismTets   = [][]int{{0, 1, 2, 3}, {1, 2, 3, 4}, {2, 3, 4, 5}}
	pyramidTets = [][]int{{0, 1, 2, 4}, {0, 2, 3, 4}}
)

// Reference corners of the isoparametric elements in [-1,1]^d
var (
	quadCorners = [][]float64{
		{-1, -1}, {1, -1}, {1, 1}, {-1, 1},
	}
	hexCorners = [][]float64{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	}
)

// Contains reports whether coord lies inside the element of shape g whose
// vertex coordinates are nodes. Malformed input (wrong vertex count or
// dimension) and degenerate elements contain nothing.
func Contains(g ElementGeometry, coord []float64, nodes [][]float64) bool {
	dim := int(g.Dimension())
	if dim == 0 || len(coord) != dim || len(nodes) != g.NumVertices() {
		return false
	}
	for _, n := range nodes {
		if len(n) < dim {
			return false
		}
	}

	switch g {
	case Line, Tri, Tet:
		return simplexContains(coord, nodes)
	case Rectangle:
		return isoparametricContains(coord, nodes, quadCorners)
	case Hex:
		return isoparametricContains(coord, nodes, hexCorners)
	case Prism:
		return splitContains(coord, nodes, prismTets)
	case Pyramid:
		return splitContains(coord, nodes, pyramidTets)
	}
	return false
}

// Centroid returns the arithmetic mean of the node coordinates
func Centroid(nodes [][]float64) []float64 {
	if len(nodes) == 0 {
		return nil
	}
	c := make([]float64, len(nodes[0]))
	for _, n := range nodes {
		floats.Add(c, n[:len(c)])
	}
	floats.Scale(1./float64(len(nodes)), c)
	return c
}

func splitContains(coord []float64, nodes [][]float64, tets [][]int) bool {
	sub := make([][]float64, 4)
	for _, tet := range tets {
		for i, v := range tet {
			sub[i] = nodes[v]
		}
		if simplexContains(coord, sub) {
			return true
		}
	}
	return false
}

// simplexContains solves for the barycentric coordinates of coord in the
// simplex spanned by nodes (d+1 vertices in d dimensions).
func simplexContains(coord []float64, nodes [][]float64) bool {
	d := len(coord)
	T := mat.NewDense(d, d, nil)
	rhs := mat.NewVecDense(d, nil)
	for row := 0; row < d; row++ {
		for col := 0; col < d; col++ {
			T.Set(row, col, nodes[col+1][row]-nodes[0][row])
		}
		rhs.SetVec(row, coord[row]-nodes[0][row])
	}
	if mat.Det(T) == 0 {
		return false
	}

	var lambda mat.VecDense
	if err := lambda.SolveVec(T, rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return false
		}
	}

	sum := 0.
	for i := 0; i < d; i++ {
		l := lambda.AtVec(i)
		if l < -Tolerance {
			return false
		}
		sum += l
	}
	return sum <= 1+Tolerance
}

// isoparametricContains inverts the multilinear map of a quad or hex with
// Newton iterations and checks the mapped point against [-1,1]^d.
func isoparametricContains(coord []float64, nodes [][]float64, corners [][]float64) bool {
	d := len(coord)
	xi := make([]float64, d)
	x := make([]float64, d)
	J := mat.NewDense(d, d, nil)
	r := mat.NewVecDense(d, nil)

	size := 0.
	for a := 0; a < d; a++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, n := range nodes {
			lo, hi = math.Min(lo, n[a]), math.Max(hi, n[a])
		}
		size = math.Max(size, hi-lo)
	}
	resTol := 1.e-12 * (1 + size)

	converged := false
	for iter := 0; iter < newtonMaxIter; iter++ {
		for a := range x {
			x[a] = 0
		}
		J.Zero()
		for i, n := range nodes {
			N, dN := shapeFunction(xi, corners[i])
			for a := 0; a < d; a++ {
				x[a] += N * n[a]
				for b := 0; b < d; b++ {
					J.Set(a, b, J.At(a, b)+dN[b]*n[a])
				}
			}
		}
		resMax := 0.
		for a := 0; a < d; a++ {
			r.SetVec(a, x[a]-coord[a])
			resMax = math.Max(resMax, math.Abs(x[a]-coord[a]))
		}
		if resMax <= resTol {
			converged = true
			break
		}

		var delta mat.VecDense
		if err := delta.SolveVec(J, r); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return false
			}
		}
		for b := 0; b < d; b++ {
			xi[b] -= delta.AtVec(b)
			if math.Abs(xi[b]) > newtonDiverge || math.IsNaN(xi[b]) {
				return false
			}
		}
	}
	if !converged {
		return false
	}

	for _, v := range xi {
		if math.Abs(v) > 1+Tolerance {
			return false
		}
	}
	return true
}

// shapeFunction evaluates the multilinear shape function attached to the
// reference corner c, and its gradient, at xi.
func shapeFunction(xi, c []float64) (N float64, dN []float64) {
	d := len(xi)
	f := make([]float64, d)
	for a := 0; a < d; a++ {
		f[a] = 0.5 * (1 + c[a]*xi[a])
	}
	N = 1.
	for a := 0; a < d; a++ {
		N *= f[a]
	}
	dN = make([]float64, d)
	for b := 0; b < d; b++ {
		g := 0.5 * c[b]
		for a := 0; a < d; a++ {
			if a != b {
				g *= f[a]
			}
		}
		dN[b] = g
	}
	return
}
