package element

// faceTables lists the local vertices of every face (the boundary entities
// of codimension one) per element shape, matching the generator and Gambit
// vertex orderings.
var faceTables = [...][][]int{
	Tet:       {{0, 1, 2}, {0, 1, 3}, {1, 2, 3}, {0, 2, 3}},
	Hex:       {{0, 1, 2, 3}, {4, 5, 6, 7}, {0, 1, 5, 4}, {1, 2, 6, 5}, {2, 3, 7, 6}, {3, 0, 4, 7}},
	Prism:     {{0, 1, 2}, {3, 4, 5}, {0, 1, 4, 3}, {1, 2, 5, 4}, {2, 0, 3, 5}},
	Pyramid:   {{0, 1, 2, 3}, {0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4}},
	Tri:       {{0, 1}, {1, 2}, {2, 0}},
	Rectangle: {{0, 1}, {1, 2}, {2, 3}, {3, 0}},
	Line:      {{0}, {1}},
}

// FaceVertices returns the local vertex indices of each face of g. The
// result is shared, callers must not modify it.
func FaceVertices(g ElementGeometry) [][]int {
	if int(g) < len(faceTables) {
		return faceTables[g]
	}
	return nil
}

// NumFaces returns the number of faces of g
func (g ElementGeometry) NumFaces() int {
	return len(FaceVertices(g))
}
