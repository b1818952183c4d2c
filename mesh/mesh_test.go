package mesh

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/notargets/DGLocator/element"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMesh_Validation(t *testing.T) {
	verts := [][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

	_, err := NewMesh(4, verts, nil, nil)
	assert.Error(t, err, "dimension 4 should be rejected")

	_, err = NewMesh(2, verts, [][]int{{0, 1, 7}}, nil)
	assert.Error(t, err, "vertex index out of range")

	_, err = NewMesh(2, verts, [][]int{{0, 1}}, nil)
	assert.Error(t, err, "2 vertices is no 2D element")

	_, err = NewMesh(2, verts, [][]int{{0, 1, 2}}, []element.ElementGeometry{element.Tet})
	assert.Error(t, err, "tet in a 2D mesh")

	_, err = NewMesh(3, verts, nil, nil)
	assert.Error(t, err, "2D vertices in a 3D mesh")

	m, err := NewMesh(2, verts, [][]int{{0, 1, 2}, {1, 3, 2}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, m.NumElements())
	assert.Equal(t, element.Tri, m.Types[1])
	assert.InDeltaSlicef(t, []float64{2. / 3, 2. / 3}, m.Centroid(1), 1.e-14, "")
	assert.True(t, m.IsPointInside(0, []float64{0.2, 0.2}))
	assert.False(t, m.IsPointInside(0, []float64{0.8, 0.8}))
	assert.True(t, m.IsPointInside(1, []float64{0.8, 0.8}))
}

func TestGenerators_CoverDomain(t *testing.T) {
	lo3, hi3 := []float64{0, 0, 0}, []float64{2, 1, 1}

	line, err := NewLineMesh(4, 0, 2)
	require.NoError(t, err)
	quads, err := NewQuadMesh(4, 2, lo3[:2], hi3[:2])
	require.NoError(t, err)
	tris, err := NewTriMesh(4, 2, lo3[:2], hi3[:2])
	require.NoError(t, err)
	hexes, err := NewHexMesh(2, 2, 2, lo3, hi3)
	require.NoError(t, err)
	tets, err := NewTetMesh(2, 2, 2, lo3, hi3)
	require.NoError(t, err)

	assert.Equal(t, 4, line.NumElements())
	assert.Equal(t, 8, quads.NumElements())
	assert.Equal(t, 16, tris.NumElements())
	assert.Equal(t, 8, hexes.NumElements())
	assert.Equal(t, 48, tets.NumElements())
	assert.Equal(t, 27, tets.NumVertices())

	// Every interior sample point is claimed by at least one element
	samples := map[*Mesh][][]float64{
		line:  {{0.1}, {0.77}, {1.99}},
		quads: {{0.1, 0.1}, {1.3, 0.6}, {1.99, 0.99}},
		tris:  {{0.1, 0.05}, {0.05, 0.1}, {1.3, 0.6}},
		hexes: {{0.1, 0.1, 0.1}, {1.7, 0.2, 0.9}},
		tets:  {{0.1, 0.2, 0.3}, {1.7, 0.2, 0.9}, {0.9, 0.9, 0.1}},
	}
	for m, pts := range samples {
		for _, p := range pts {
			hits := 0
			for k := 0; k < m.NumElements(); k++ {
				if m.IsPointInside(ElementID(k), p) {
					hits++
				}
			}
			if hits == 0 {
				t.Errorf("%s: point %v not inside any element", m, p)
			}
		}
	}
}

func TestSplit(t *testing.T) {
	m, err := NewQuadMesh(4, 1, []float64{0, 0}, []float64{4, 1})
	require.NoError(t, err)

	eToP := []int{0, 0, 1, 1}
	parts, l2g, err := m.Split(eToP, 2)
	require.NoError(t, err)
	require.Len(t, parts, 2)

	assert.Equal(t, []int{0, 1}, l2g[0])
	assert.Equal(t, []int{2, 3}, l2g[1])
	for p, part := range parts {
		assert.Equal(t, 2, part.NumElements())
		assert.Equal(t, 6, part.NumVertices(), "partition %d", p)
		for k := range l2g[p] {
			assert.Equal(t, m.Centroid(ElementID(l2g[p][k])), part.Centroid(ElementID(k)))
		}
	}

	_, _, err = m.Split([]int{0, 0, 1}, 2)
	assert.Error(t, err)
	_, _, err = m.Split([]int{0, 0, 1, 2}, 2)
	assert.Error(t, err)
}

func TestReadMeshFile_GambitNeutral(t *testing.T) {
	content := `        CONTROL INFO 2.0.0
** GAMBIT NEUTRAL FILE
Single tet
PROGRAM:                  Test     VERSION:  1.0
Mon Jan  1 00:00:00 2025
     NUMNP     NELEM     NGRPS    NBSETS     NDFCD     NDFVL
         4         1         1         1         3         3
ENDOFSECTION
   NODAL COORDINATES 2.0.0
         1   0.00000000000e+00   0.00000000000e+00   0.00000000000e+00
         2   1.00000000000e+00   0.00000000000e+00   0.00000000000e+00
         3   0.00000000000e+00   1.00000000000e+00   0.00000000000e+00
         4   0.00000000000e+00   0.00000000000e+00   1.00000000000e+00
ENDOFSECTION
   ELEMENTS/CELLS 2.0.0
         1         6         4         1         2         3         4
ENDOFSECTION
       BOUNDARY CONDITIONS 2.0.0
fixed           0         2         3         0         0         0         0         0
         1   0.00000000000e+00   0.00000000000e+00   0.00000000000e+00
         2   0.00000000000e+00   0.00000000000e+00   0.00000000000e+00
ENDOFSECTION`

	meshfile := filepath.Join(t.TempDir(), "tet.neu")
	require.NoError(t, os.WriteFile(meshfile, []byte(content), 0o644))

	m, eToP, err := ReadMeshFile(meshfile)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Dimension())
	assert.Equal(t, 1, m.NumElements())
	assert.Equal(t, element.Tet, m.Types[0])
	assert.True(t, m.IsPointInside(0, []float64{0.1, 0.1, 0.1}))
	assert.False(t, m.IsPointInside(0, []float64{0.6, 0.6, 0.6}))
	assert.LessOrEqual(t, len(eToP), 1)

	_, _, err = ReadMeshFile(filepath.Join(t.TempDir(), "missing.neu"))
	assert.Error(t, err)
}
