package partitions

import (
	"fmt"
	"math"
)

// Partition is the set of elements owned by one rank
type Partition struct {
	// Unique identifier for this partition, equal to the owning rank
	ID int

	// Element membership
	Elements    []int // Global element indices in this partition
	NumElements int   // Actual number of elements
}

// PartitionLayout manages the complete mesh decomposition
type PartitionLayout struct {
	// All partitions in the mesh
	Partitions []Partition

	// Global sizing information
	TotalElements int // Sum of all elements across partitions
	NumPartitions int // Total number of partitions

	// Element to partition mapping
	EToP []int // Length TotalElements: element k belongs to partition EToP[k]
}

// GetPartition returns the partition containing element k
func (pl *PartitionLayout) GetPartition(elementID int) int {
	if elementID < 0 || elementID >= len(pl.EToP) {
		return -1
	}
	return pl.EToP[elementID]
}

// ValidateLayout checks partition consistency: every element belongs to
// exactly one partition and the bookkeeping agrees with EToP
func (pl *PartitionLayout) ValidateLayout() error {
	if len(pl.Partitions) != pl.NumPartitions {
		return fmt.Errorf("%d partitions stored, NumPartitions is %d",
			len(pl.Partitions), pl.NumPartitions)
	}
	if len(pl.EToP) != pl.TotalElements {
		return fmt.Errorf("EToP length %d != TotalElements %d", len(pl.EToP), pl.TotalElements)
	}

	seen := make([]bool, pl.TotalElements)
	total := 0
	for _, p := range pl.Partitions {
		if p.NumElements != len(p.Elements) {
			return fmt.Errorf("partition %d: NumElements %d != %d listed elements",
				p.ID, p.NumElements, len(p.Elements))
		}
		for _, elem := range p.Elements {
			if elem < 0 || elem >= pl.TotalElements {
				return fmt.Errorf("partition %d: element %d out of range", p.ID, elem)
			}
			if seen[elem] {
				return fmt.Errorf("element %d assigned more than once", elem)
			}
			seen[elem] = true
			if pl.EToP[elem] != p.ID {
				return fmt.Errorf("element %d listed in partition %d but EToP says %d",
					elem, p.ID, pl.EToP[elem])
			}
		}
		total += p.NumElements
	}
	if total != pl.TotalElements {
		return fmt.Errorf("partitions hold %d elements, expected %d", total, pl.TotalElements)
	}
	return nil
}

// PartitionStatistics computes load balance metrics
func (pl *PartitionLayout) PartitionStatistics() PartitionStats {
	stats := PartitionStats{
		NumPartitions: pl.NumPartitions,
		MinElements:   math.MaxInt32,
		MaxElements:   0,
	}
	if pl.NumPartitions == 0 {
		stats.MinElements = 0
		return stats
	}
	stats.AvgElements = float64(pl.TotalElements) / float64(pl.NumPartitions)

	for _, p := range pl.Partitions {
		if p.NumElements < stats.MinElements {
			stats.MinElements = p.NumElements
		}
		if p.NumElements > stats.MaxElements {
			stats.MaxElements = p.NumElements
		}
	}
	if stats.AvgElements > 0 {
		stats.Imbalance = float64(stats.MaxElements) / stats.AvgElements
	}

	return stats
}

type PartitionStats struct {
	NumPartitions int
	MinElements   int
	MaxElements   int
	AvgElements   float64
	Imbalance     float64 // MaxElements / AvgElements
}
