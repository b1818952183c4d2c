package mesh

import (
	"fmt"

	"github.com/notargets/gocfd/DG3D/mesh/readers"
)

// ReadMeshFile loads a 3D mesh file (Gambit neutral, Gmsh, ...) through the
// gocfd readers. Element shapes are inferred from the connectivity. eToP is
// the partition map stored in the file, nil when the file is unpartitioned.
func ReadMeshFile(meshfile string) (m *Mesh, eToP []int, err error) {
	msh, err := readers.ReadMeshFile(meshfile)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", meshfile, err)
	}

	verts := make([][]float64, len(msh.Vertices))
	for i, v := range msh.Vertices {
		verts[i] = []float64{v[0], v[1], v[2]}
	}
	eToV := make([][]int, len(msh.EtoV))
	for k, ev := range msh.EtoV {
		conn := make([]int, len(ev))
		for i, v := range ev {
			conn[i] = int(v)
		}
		eToV[k] = conn
	}

	if m, err = NewMesh(3, verts, eToV, nil); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", meshfile, err)
	}
	if len(msh.EToP) == len(eToV) {
		eToP = make([]int, len(msh.EToP))
		copy(eToP, msh.EToP)
	}
	return m, eToP, nil
}
