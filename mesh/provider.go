package mesh

// ElementID is an opaque handle to one element of a rank-local mesh. It is
// only stable for the lifetime of the mesh snapshot it came from.
type ElementID int

// Provider is the narrow view of a mesh the locator consumes. The locator
// never copies element geometry, it only keeps ElementIDs.
type Provider interface {
	// Dimension is the spatial dimension of node coordinates (1, 2 or 3)
	Dimension() int
	NumElements() int

	// ElementNodes returns the vertex coordinates of element id
	ElementNodes(id ElementID) [][]float64
	Centroid(id ElementID) []float64

	// IsPointInside is the exact geometric containment test
	IsPointInside(id ElementID, coord []float64) bool
}
