package comm

import (
	"context"
	"fmt"
	"slices"
)

const (
	opBroadcast = "broadcast"
	opGather    = "gather"

	linkDepth = 4
)

type message struct {
	op     string
	floats []float64
	ints   []int
}

// localWorld connects goroutine ranks with one FIFO channel per ordered
// (src, dst) pair, so messages between two ranks never overtake each other
type localWorld struct {
	size  int
	links [][]chan message // links[src][dst]
}

// LocalComm is one rank of an in-process world
type LocalComm struct {
	rank  int
	world *localWorld
}

var _ Communicator = (*LocalComm)(nil)

// NewLocalWorld creates size communicating ranks, to be driven from
// separate goroutines
func NewLocalWorld(size int) ([]*LocalComm, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: world size %d", ErrInvalidRank, size)
	}
	w := &localWorld{size: size, links: make([][]chan message, size)}
	for src := range w.links {
		w.links[src] = make([]chan message, size)
		for dst := range w.links[src] {
			if src != dst {
				w.links[src][dst] = make(chan message, linkDepth)
			}
		}
	}
	comms := make([]*LocalComm, size)
	for r := range comms {
		comms[r] = &LocalComm{rank: r, world: w}
	}
	return comms, nil
}

func (c *LocalComm) Rank() int { return c.rank }
func (c *LocalComm) Size() int { return c.world.size }

func (c *LocalComm) Broadcast(ctx context.Context, data []float64, root int) ([]float64, error) {
	if err := checkRoot(root, c.world.size); err != nil {
		return nil, err
	}
	if c.rank == root {
		for dst := 0; dst < c.world.size; dst++ {
			if dst == root {
				continue
			}
			msg := message{op: opBroadcast, floats: slices.Clone(data)}
			if err := c.send(ctx, dst, msg); err != nil {
				return nil, err
			}
		}
		return slices.Clone(data), nil
	}
	msg, err := c.recv(ctx, root, opBroadcast)
	if err != nil {
		return nil, err
	}
	return msg.floats, nil
}

func (c *LocalComm) Gather(ctx context.Context, local []int, root int) ([][]int, error) {
	if err := checkRoot(root, c.world.size); err != nil {
		return nil, err
	}
	if c.rank != root {
		return nil, c.send(ctx, root, message{op: opGather, ints: slices.Clone(local)})
	}
	all := make([][]int, c.world.size)
	all[root] = slices.Clone(local)
	for src := 0; src < c.world.size; src++ {
		if src == root {
			continue
		}
		msg, err := c.recv(ctx, src, opGather)
		if err != nil {
			return nil, err
		}
		all[src] = msg.ints
	}
	return all, nil
}

func (c *LocalComm) send(ctx context.Context, dst int, msg message) error {
	select {
	case c.world.links[c.rank][dst] <- msg:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("rank %d sending %s to %d: %w", c.rank, msg.op, dst, ctx.Err())
	}
}

func (c *LocalComm) recv(ctx context.Context, src int, op string) (message, error) {
	select {
	case msg := <-c.world.links[src][c.rank]:
		if msg.op != op {
			return message{}, fmt.Errorf("%w: rank %d expected %s from %d, got %s",
				ErrMismatch, c.rank, op, src, msg.op)
		}
		return msg, nil
	case <-ctx.Done():
		return message{}, fmt.Errorf("rank %d waiting for %s from %d: %w", c.rank, op, src, ctx.Err())
	}
}
