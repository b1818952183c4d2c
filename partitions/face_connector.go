package partitions

import (
	"fmt"
	"slices"

	"github.com/notargets/DGLocator/element"
	"github.com/notargets/DGLocator/mesh"
)

// FaceConnector finds the faces shared between partitions of a mesh. The
// face count between two ranks is the size of the interface a point near
// it may be claimed across, and the total cut measures partition quality.
type FaceConnector struct {
	NumPartitions int
	K             int // Total elements

	EToP []int   // Element → partition mapping
	EToE [][]int // [elem][face] → neighbor element, -1 on the domain boundary

	// Partition mappings
	ElemsPerPartition []int         // Elements per partition
	GlobalToLocalElem []map[int]int // [partition][globalElem] → localElem
	LocalToGlobalElem [][]int       // [partition][localElem] → globalElem

	SharedFaces [][]int // [p][q] faces between partitions p and q, symmetric
}

// faceKey is the sorted global vertex list of a face, padded with -1
type faceKey [4]int

type faceRef struct {
	elem, face int
}

// NewFaceConnector matches the faces of m by their vertex sets and counts
// those whose two elements live on different partitions
func NewFaceConnector(m *mesh.Mesh, eToP []int) (*FaceConnector, error) {
	if m == nil || m.NumElements() == 0 {
		return nil, fmt.Errorf("invalid mesh: no elements")
	}
	K := m.NumElements()
	if len(eToP) != K {
		return nil, fmt.Errorf("EToP length %d does not match K=%d", len(eToP), K)
	}

	// Determine number of partitions
	numPartitions := 0
	for k, p := range eToP {
		if p < 0 {
			return nil, fmt.Errorf("element %d has negative partition %d", k, p)
		}
		numPartitions = max(numPartitions, p+1)
	}

	fc := &FaceConnector{
		NumPartitions: numPartitions,
		K:             K,
		EToP:          eToP,
	}
	fc.buildPartitionMappings()
	if err := fc.connect(m); err != nil {
		return nil, err
	}
	return fc, nil
}

// buildPartitionMappings creates bidirectional mappings between global and
// local element numbering, local order following global order like Split
func (fc *FaceConnector) buildPartitionMappings() {
	fc.ElemsPerPartition = make([]int, fc.NumPartitions)
	for _, p := range fc.EToP {
		fc.ElemsPerPartition[p]++
	}

	fc.GlobalToLocalElem = make([]map[int]int, fc.NumPartitions)
	fc.LocalToGlobalElem = make([][]int, fc.NumPartitions)
	for p := 0; p < fc.NumPartitions; p++ {
		fc.GlobalToLocalElem[p] = make(map[int]int, fc.ElemsPerPartition[p])
		fc.LocalToGlobalElem[p] = make([]int, 0, fc.ElemsPerPartition[p])
	}

	for globalElem := 0; globalElem < fc.K; globalElem++ {
		partition := fc.EToP[globalElem]
		fc.GlobalToLocalElem[partition][globalElem] = len(fc.LocalToGlobalElem[partition])
		fc.LocalToGlobalElem[partition] = append(fc.LocalToGlobalElem[partition], globalElem)
	}
}

func (fc *FaceConnector) connect(m *mesh.Mesh) error {
	fc.EToE = make([][]int, fc.K)
	fc.SharedFaces = make([][]int, fc.NumPartitions)
	for p := range fc.SharedFaces {
		fc.SharedFaces[p] = make([]int, fc.NumPartitions)
	}

	open := make(map[faceKey]faceRef)
	for k, ev := range m.EToV {
		faces := element.FaceVertices(m.Types[k])
		fc.EToE[k] = make([]int, len(faces))
		for f, local := range faces {
			fc.EToE[k][f] = -1
			key := faceKey{-1, -1, -1, -1}
			for i, lv := range local {
				key[i] = ev[lv]
			}
			slices.Sort(key[:len(local)])

			other, ok := open[key]
			if !ok {
				open[key] = faceRef{elem: k, face: f}
				continue
			}
			if other.elem < 0 {
				return fmt.Errorf("non-conforming mesh: face %v of element %d shared by more than two elements",
					key[:len(local)], k)
			}
			fc.EToE[k][f] = other.elem
			fc.EToE[other.elem][other.face] = k
			// Mark matched, a third element on this face is an error
			open[key] = faceRef{elem: -1}

			if p, q := fc.EToP[k], fc.EToP[other.elem]; p != q {
				fc.SharedFaces[p][q]++
				fc.SharedFaces[q][p]++
			}
		}
	}
	return nil
}

// GetSharedFaces returns the number of faces between partitions p and q
func (fc *FaceConnector) GetSharedFaces(p, q int) int {
	if p < 0 || p >= fc.NumPartitions || q < 0 || q >= fc.NumPartitions {
		return 0
	}
	return fc.SharedFaces[p][q]
}

// Neighbors returns the partitions sharing at least one face with p, in
// ascending order
func (fc *FaceConnector) Neighbors(p int) []int {
	var out []int
	for q := 0; q < fc.NumPartitions; q++ {
		if q != p && fc.GetSharedFaces(p, q) > 0 {
			out = append(out, q)
		}
	}
	return out
}

// CutFaces is the number of faces whose elements are on different partitions
func (fc *FaceConnector) CutFaces() int {
	total := 0
	for p := 0; p < fc.NumPartitions; p++ {
		for q := p + 1; q < fc.NumPartitions; q++ {
			total += fc.SharedFaces[p][q]
		}
	}
	return total
}

// BoundaryFaces is the number of faces on the domain boundary
func (fc *FaceConnector) BoundaryFaces() int {
	total := 0
	for _, nbrs := range fc.EToE {
		for _, e := range nbrs {
			if e < 0 {
				total++
			}
		}
	}
	return total
}
