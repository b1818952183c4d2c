package comm

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidRank = errors.New("comm: rank out of range")
	ErrMismatch    = errors.New("comm: collective mismatch")
)

// Communicator is the collective primitive the ranks of a world share. Every
// rank must issue the same sequence of collectives with the same roots; the
// n-th call on one rank matches the n-th call on every other rank.
type Communicator interface {
	Rank() int
	Size() int
	// Broadcast returns the root's data on every rank. data is ignored on
	// the other ranks.
	Broadcast(ctx context.Context, data []float64, root int) ([]float64, error)
	// Gather collects local from every rank on root, indexed by rank. Ranks
	// other than root get nil.
	Gather(ctx context.Context, local []int, root int) ([][]int, error)
}

func checkRoot(root, size int) error {
	if root < 0 || root >= size {
		return fmt.Errorf("%w: root %d of %d", ErrInvalidRank, root, size)
	}
	return nil
}
