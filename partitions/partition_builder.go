package partitions

import (
	"fmt"
	"math"
	"sort"

	"github.com/notargets/DGLocator/mesh"
)

// mortonBits is the per-axis resolution of the space filling curve
const mortonBits = 10

// PartitionBuilder distributes mesh elements over ranks
type PartitionBuilder struct {
	// Mesh whose elements are distributed
	Mesh mesh.Provider

	// Partitioning parameters
	NumPartitions int
	Strategy      PartitionStrategy
}

// PartitionStrategy defines how elements are grouped
type PartitionStrategy int

const (
	// Simple strategies
	BlockPartition PartitionStrategy = iota // Consecutive elements
	RoundRobin                              // Distribute cyclically

	// Geometric strategies, driven by element centroids
	CoordinateBisection // Recursive bisection of the widest extent
	SpaceFillingCurve   // Morton curve ordering
)

func (s PartitionStrategy) String() string {
	switch s {
	case BlockPartition:
		return "block"
	case RoundRobin:
		return "round-robin"
	case CoordinateBisection:
		return "bisection"
	case SpaceFillingCurve:
		return "morton"
	}
	return fmt.Sprintf("PartitionStrategy(%d)", int(s))
}

// ParseStrategy maps a strategy name, as printed by String, back to its value
func ParseStrategy(name string) (PartitionStrategy, error) {
	for _, s := range []PartitionStrategy{BlockPartition, RoundRobin, CoordinateBisection, SpaceFillingCurve} {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown partition strategy %q", name)
}

// BuildPartitions creates a partition layout from the mesh
func (pb *PartitionBuilder) BuildPartitions() (*PartitionLayout, error) {
	if pb.Mesh == nil {
		return nil, fmt.Errorf("partition builder has no mesh")
	}
	if pb.NumPartitions < 1 {
		return nil, fmt.Errorf("invalid partition count %d", pb.NumPartitions)
	}

	numElements := pb.Mesh.NumElements()
	eToP := pb.partitionElements(numElements)

	layout := &PartitionLayout{
		Partitions:    createPartitions(eToP, pb.NumPartitions),
		TotalElements: numElements,
		NumPartitions: pb.NumPartitions,
		EToP:          eToP,
	}

	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}

	return layout, nil
}

// partitionElements assigns elements to partitions
func (pb *PartitionBuilder) partitionElements(numElements int) []int {
	eToP := make([]int, numElements)
	numPartitions := pb.NumPartitions

	switch pb.Strategy {
	case RoundRobin:
		for i := 0; i < numElements; i++ {
			eToP[i] = i % numPartitions
		}

	case CoordinateBisection:
		elems := makeRange(0, numElements)
		pb.bisect(elems, 0, numPartitions, eToP)

	case SpaceFillingCurve:
		order := pb.mortonOrder()
		assignBlocks(order, numPartitions, eToP)

	default:
		assignBlocks(makeRange(0, numElements), numPartitions, eToP)
	}

	return eToP
}

// assignBlocks gives consecutive runs of order to consecutive partitions
func assignBlocks(order []int, numPartitions int, eToP []int) {
	if len(order) == 0 {
		return
	}
	elementsPerPartition := int(math.Ceil(float64(len(order)) / float64(numPartitions)))
	for i, elem := range order {
		p := i / elementsPerPartition
		if p >= numPartitions {
			p = numPartitions - 1
		}
		eToP[elem] = p
	}
}

// bisect splits elems across partitions [first, first+count) by cutting the
// widest centroid extent in proportion to the partition counts
func (pb *PartitionBuilder) bisect(elems []int, first, count int, eToP []int) {
	if count == 1 || len(elems) == 0 {
		for _, e := range elems {
			eToP[e] = first
		}
		return
	}

	dim := pb.Mesh.Dimension()
	axis, widest := 0, -1.
	for d := 0; d < dim; d++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, e := range elems {
			c := pb.Mesh.Centroid(mesh.ElementID(e))[d]
			lo, hi = math.Min(lo, c), math.Max(hi, c)
		}
		if hi-lo > widest {
			axis, widest = d, hi-lo
		}
	}

	sort.SliceStable(elems, func(i, j int) bool {
		ci := pb.Mesh.Centroid(mesh.ElementID(elems[i]))[axis]
		cj := pb.Mesh.Centroid(mesh.ElementID(elems[j]))[axis]
		return ci < cj
	})

	leftCount := count / 2
	cut := len(elems) * leftCount / count
	pb.bisect(elems[:cut], first, leftCount, eToP)
	pb.bisect(elems[cut:], first+leftCount, count-leftCount, eToP)
}

// mortonOrder sorts elements along a Z-order curve through their centroids
func (pb *PartitionBuilder) mortonOrder() []int {
	numElements := pb.Mesh.NumElements()
	dim := pb.Mesh.Dimension()

	lo := make([]float64, dim)
	hi := make([]float64, dim)
	for d := range lo {
		lo[d], hi[d] = math.Inf(1), math.Inf(-1)
	}
	for k := 0; k < numElements; k++ {
		c := pb.Mesh.Centroid(mesh.ElementID(k))
		for d := 0; d < dim; d++ {
			lo[d], hi[d] = math.Min(lo[d], c[d]), math.Max(hi[d], c[d])
		}
	}

	const maxCell = 1<<mortonBits - 1
	codes := make([]uint64, numElements)
	for k := 0; k < numElements; k++ {
		c := pb.Mesh.Centroid(mesh.ElementID(k))
		var code uint64
		for d := 0; d < dim; d++ {
			var q uint64
			if hi[d] > lo[d] {
				q = uint64(math.Min(maxCell, math.Floor((c[d]-lo[d])/(hi[d]-lo[d])*maxCell)))
			}
			for b := 0; b < mortonBits; b++ {
				code |= ((q >> b) & 1) << (b*dim + d)
			}
		}
		codes[k] = code
	}

	order := makeRange(0, numElements)
	sort.SliceStable(order, func(i, j int) bool {
		return codes[order[i]] < codes[order[j]]
	})
	return order
}

// createPartitions builds partition structures from element assignments
func createPartitions(eToP []int, numPartitions int) []Partition {
	partitions := make([]Partition, numPartitions)

	for i := range partitions {
		partitions[i] = Partition{
			ID:       i,
			Elements: make([]int, 0),
		}
	}

	for elem, part := range eToP {
		partitions[part].Elements = append(partitions[part].Elements, elem)
		partitions[part].NumElements++
	}

	return partitions
}

func makeRange(start, end int) []int {
	r := make([]int, end-start)
	for i := range r {
		r[i] = start + i
	}
	return r
}
