package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContains_Simplices(t *testing.T) {
	line := [][]float64{{1}, {3}}
	tri := [][]float64{{0, 0}, {2, 0}, {0, 2}}
	tet := [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	tests := []struct {
		name   string
		g      ElementGeometry
		nodes  [][]float64
		coord  []float64
		inside bool
	}{
		{"line interior", Line, line, []float64{2}, true},
		{"line endpoint", Line, line, []float64{3}, true},
		{"line outside", Line, line, []float64{3.5}, false},
		{"tri interior", Tri, tri, []float64{0.5, 0.5}, true},
		{"tri on hypotenuse", Tri, tri, []float64{1, 1}, true},
		{"tri outside", Tri, tri, []float64{1.5, 1.5}, false},
		{"tri negative side", Tri, tri, []float64{-0.1, 0.5}, false},
		{"tet interior", Tet, tet, []float64{0.1, 0.2, 0.3}, true},
		{"tet vertex", Tet, tet, []float64{0, 0, 1}, true},
		{"tet outside", Tet, tet, []float64{0.5, 0.5, 0.5}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.inside, Contains(tc.g, tc.coord, tc.nodes))
		})
	}
}

func TestContains_Isoparametric(t *testing.T) {
	// Skewed but convex quad
	quad := [][]float64{{0, 0}, {4, 0}, {5, 3}, {1, 3}}
	assert.True(t, Contains(Rectangle, []float64{2.5, 1.5}, quad))
	assert.True(t, Contains(Rectangle, []float64{0.5, 1.4}, quad))
	assert.False(t, Contains(Rectangle, []float64{0.2, 2.5}, quad))
	assert.False(t, Contains(Rectangle, []float64{4.5, 0.5}, quad))

	hex := [][]float64{
		{0, 0, 0}, {2, 0, 0}, {2, 1, 0}, {0, 1, 0},
		{0, 0, 3}, {2, 0, 3}, {2, 1, 3}, {0, 1, 3},
	}
	assert.True(t, Contains(Hex, []float64{1, 0.5, 1.5}, hex))
	assert.True(t, Contains(Hex, []float64{2, 1, 3}, hex))
	assert.False(t, Contains(Hex, []float64{1, 1.5, 1.5}, hex))
	assert.False(t, Contains(Hex, []float64{-0.01, 0.5, 1}, hex))
}

func TestContains_SplitElements(t *testing.T) {
	prism := [][]float64{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {0, 1, 1},
	}
	assert.True(t, Contains(Prism, []float64{0.2, 0.2, 0.5}, prism))
	assert.True(t, Contains(Prism, []float64{0.45, 0.45, 0.9}, prism))
	assert.False(t, Contains(Prism, []float64{0.6, 0.6, 0.5}, prism))

	pyramid := [][]float64{
		{0, 0, 0}, {2, 0, 0}, {2, 2, 0}, {0, 2, 0}, {1, 1, 1},
	}
	assert.True(t, Contains(Pyramid, []float64{1, 1, 0.5}, pyramid))
	assert.True(t, Contains(Pyramid, []float64{0.3, 1.7, 0.1}, pyramid))
	assert.False(t, Contains(Pyramid, []float64{0.1, 0.1, 0.5}, pyramid))
}

func TestContains_Malformed(t *testing.T) {
	tri := [][]float64{{0, 0}, {1, 0}, {0, 1}}
	// Wrong coordinate dimension
	assert.False(t, Contains(Tri, []float64{0.1, 0.1, 0}, tri))
	// Wrong vertex count
	assert.False(t, Contains(Tet, []float64{0.1, 0.1, 0.1}, [][]float64{{0, 0, 0}}))
	// Degenerate (collinear) triangle
	flat := [][]float64{{0, 0}, {1, 1}, {2, 2}}
	assert.False(t, Contains(Tri, []float64{1, 1}, flat))
}

func TestCentroid(t *testing.T) {
	c := Centroid([][]float64{{0, 0}, {3, 0}, {0, 3}})
	assert.InDeltaSlicef(t, []float64{1, 1}, c, 1.e-14, "")
	assert.Nil(t, Centroid(nil))
}

func TestGeometryFromVertexCount(t *testing.T) {
	g, err := GeometryFromVertexCount(D3, 8)
	assert.NoError(t, err)
	assert.Equal(t, Hex, g)

	g, err = GeometryFromVertexCount(D2, 3)
	assert.NoError(t, err)
	assert.Equal(t, Tri, g)

	_, err = GeometryFromVertexCount(D3, 7)
	assert.Error(t, err)

	for _, g := range []ElementGeometry{Tet, Hex, Prism, Pyramid, Tri, Rectangle, Line} {
		got, err := GeometryFromVertexCount(g.Dimension(), g.NumVertices())
		if err != nil {
			t.Fatalf("%s: %v", g, err)
		}
		// Tet and Rectangle both have 4 vertices but live in different dimensions
		assert.Equal(t, g, got)
	}
}
