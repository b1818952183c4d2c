package element

import "fmt"

// Dimensionality represents the spatial dimension of an element
type Dimensionality uint8

const (
	D1 Dimensionality = iota + 1 // 1D elements (lines)
	D2                           // 2D elements (triangles, quadrilaterals)
	D3                           // 3D elements (tetrahedra, hexahedra, etc.)
)

// ElementGeometry identifies the shape of an element
type ElementGeometry uint8

const (
	// 3D element types
	Tet     ElementGeometry = iota // Tetrahedron
	Hex                            // Hexahedron
	Prism                          // Triangular prism
	Pyramid                        // Square-based pyramid

	// 2D element types
	Tri       // Triangle
	Rectangle // Rectangle/Quadrilateral

	// 1D element type
	Line // Line segment
)

var geometryNames = [...]string{
	Tet:       "Tet",
	Hex:       "Hex",
	Prism:     "Prism",
	Pyramid:   "Pyramid",
	Tri:       "Tri",
	Rectangle: "Rectangle",
	Line:      "Line",
}

func (g ElementGeometry) String() string {
	if int(g) < len(geometryNames) {
		return geometryNames[g]
	}
	return fmt.Sprintf("ElementGeometry(%d)", uint8(g))
}

// NumVertices returns the number of defining vertices of a linear element
func (g ElementGeometry) NumVertices() int {
	switch g {
	case Tet:
		return 4
	case Hex:
		return 8
	case Prism:
		return 6
	case Pyramid:
		return 5
	case Tri:
		return 3
	case Rectangle:
		return 4
	case Line:
		return 2
	}
	return 0
}

// Dimension returns the spatial dimension the element lives in
func (g ElementGeometry) Dimension() Dimensionality {
	switch g {
	case Tet, Hex, Prism, Pyramid:
		return D3
	case Tri, Rectangle:
		return D2
	case Line:
		return D1
	}
	return 0
}

// GeometryFromVertexCount infers the element shape from its vertex count.
// Mesh readers that only carry connectivity (EToV) rely on this.
func GeometryFromVertexCount(dim Dimensionality, nverts int) (ElementGeometry, error) {
	switch dim {
	case D1:
		if nverts == 2 {
			return Line, nil
		}
	case D2:
		switch nverts {
		case 3:
			return Tri, nil
		case 4:
			return Rectangle, nil
		}
	case D3:
		switch nverts {
		case 4:
			return Tet, nil
		case 5:
			return Pyramid, nil
		case 6:
			return Prism, nil
		case 8:
			return Hex, nil
		}
	}
	return 0, fmt.Errorf("no %dD element has %d vertices", dim, nverts)
}
