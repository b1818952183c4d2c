package mesh

import (
	"fmt"

	"github.com/notargets/DGLocator/element"
)

// Split distributes the elements over numParts rank-local meshes following
// the element to partition map eToP. Each part only carries the vertices its
// elements reference. localToGlobal[p][k] is the global element index of
// local element k on part p; local order follows global order.
func (m *Mesh) Split(eToP []int, numParts int) (parts []*Mesh, localToGlobal [][]int, err error) {
	if len(eToP) != m.NumElements() {
		return nil, nil, fmt.Errorf("EToP length %d does not match K=%d", len(eToP), m.NumElements())
	}
	if numParts < 1 {
		return nil, nil, fmt.Errorf("invalid partition count %d", numParts)
	}

	localToGlobal = make([][]int, numParts)
	for k, p := range eToP {
		if p < 0 || p >= numParts {
			return nil, nil, fmt.Errorf("element %d assigned to partition %d, outside [0,%d)", k, p, numParts)
		}
		localToGlobal[p] = append(localToGlobal[p], k)
	}

	parts = make([]*Mesh, numParts)
	for p := 0; p < numParts; p++ {
		globalToLocalVert := make(map[int]int)
		verts := make([][]float64, 0)
		eToV := make([][]int, len(localToGlobal[p]))
		types := make([]element.ElementGeometry, len(localToGlobal[p]))
		for localElem, globalElem := range localToGlobal[p] {
			ev := m.EToV[globalElem]
			conn := make([]int, len(ev))
			for i, gv := range ev {
				lv, ok := globalToLocalVert[gv]
				if !ok {
					lv = len(verts)
					globalToLocalVert[gv] = lv
					verts = append(verts, m.Vertices[gv])
				}
				conn[i] = lv
			}
			eToV[localElem] = conn
			types[localElem] = m.Types[globalElem]
		}
		if parts[p], err = NewMesh(m.Dim, verts, eToV, types); err != nil {
			return nil, nil, fmt.Errorf("partition %d: %w", p, err)
		}
	}
	return parts, localToGlobal, nil
}
