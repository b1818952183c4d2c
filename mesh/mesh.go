package mesh

import (
	"fmt"
	"strings"

	"github.com/notargets/DGLocator/element"
)

// Mesh is an in-memory, unstructured mesh of linear elements. It implements
// Provider.
type Mesh struct {
	Dim      int                       // Spatial dimension of the vertices
	Vertices [][]float64               // [NumVertices][Dim]
	EToV     [][]int                   // Element to vertex connectivity
	Types    []element.ElementGeometry // Shape of each element

	centroids [][]float64
}

var _ Provider = (*Mesh)(nil)

// NewMesh validates the connectivity and precomputes element centroids.
// When types is nil, shapes are inferred from the vertex count of each
// element.
func NewMesh(dim int, vertices [][]float64, eToV [][]int, types []element.ElementGeometry) (*Mesh, error) {
	if dim < 1 || dim > 3 {
		return nil, fmt.Errorf("invalid mesh dimension %d", dim)
	}
	for i, v := range vertices {
		if len(v) < dim {
			return nil, fmt.Errorf("vertex %d has %d coordinates, need %d", i, len(v), dim)
		}
	}
	if types == nil {
		types = make([]element.ElementGeometry, len(eToV))
		for k, ev := range eToV {
			g, err := element.GeometryFromVertexCount(element.Dimensionality(dim), len(ev))
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", k, err)
			}
			types[k] = g
		}
	}
	if len(types) != len(eToV) {
		return nil, fmt.Errorf("types length %d does not match %d elements", len(types), len(eToV))
	}

	m := &Mesh{
		Dim:       dim,
		Vertices:  vertices,
		EToV:      eToV,
		Types:     types,
		centroids: make([][]float64, len(eToV)),
	}
	for k, ev := range eToV {
		g := types[k]
		if int(g.Dimension()) != dim {
			return nil, fmt.Errorf("element %d: %s is not a %dD element", k, g, dim)
		}
		if len(ev) != g.NumVertices() {
			return nil, fmt.Errorf("element %d: %s needs %d vertices, got %d",
				k, g, g.NumVertices(), len(ev))
		}
		for _, v := range ev {
			if v < 0 || v >= len(vertices) {
				return nil, fmt.Errorf("element %d: vertex index %d out of range [0,%d)",
					k, v, len(vertices))
			}
		}
		m.centroids[k] = element.Centroid(m.ElementNodes(ElementID(k)))
	}
	return m, nil
}

func (m *Mesh) Dimension() int   { return m.Dim }
func (m *Mesh) NumElements() int { return len(m.EToV) }
func (m *Mesh) NumVertices() int { return len(m.Vertices) }

// ElementNodes returns the vertex coordinates of element id. The inner
// slices alias the mesh vertices and must not be modified.
func (m *Mesh) ElementNodes(id ElementID) [][]float64 {
	ev := m.EToV[id]
	nodes := make([][]float64, len(ev))
	for i, v := range ev {
		nodes[i] = m.Vertices[v][:m.Dim]
	}
	return nodes
}

func (m *Mesh) Centroid(id ElementID) []float64 {
	return m.centroids[id]
}

func (m *Mesh) IsPointInside(id ElementID, coord []float64) bool {
	return element.Contains(m.Types[id], coord, m.ElementNodes(id))
}

// String returns a short summary of the mesh
func (m *Mesh) String() string {
	var sb strings.Builder
	counts := make(map[element.ElementGeometry]int)
	for _, g := range m.Types {
		counts[g]++
	}
	sb.WriteString(fmt.Sprintf("%dD mesh: %d vertices, %d elements", m.Dim, m.NumVertices(), m.NumElements()))
	for _, g := range []element.ElementGeometry{element.Tet, element.Hex, element.Prism,
		element.Pyramid, element.Tri, element.Rectangle, element.Line} {
		if n := counts[g]; n > 0 {
			sb.WriteString(fmt.Sprintf(", %d %s", n, g))
		}
	}
	return sb.String()
}
