package comm

import (
	"context"
	"fmt"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// GRPCComm is one rank of a world whose collectives run through a Hub
type GRPCComm struct {
	conn *grpc.ClientConn
	rank int
	size int
	seq  atomic.Uint64
}

var _ Communicator = (*GRPCComm)(nil)

// Dial connects rank to the hub at target and waits until the connection is
// ready or ctx expires. Without options the connection is plaintext.
func Dial(ctx context.Context, target string, rank, size int, opts ...grpc.DialOption) (*GRPCComm, error) {
	if rank < 0 || rank >= size {
		return nil, fmt.Errorf("%w: rank %d of %d", ErrInvalidRank, rank, size)
	}
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dialing hub %s: %w", target, err)
	}

	conn.Connect()
	for state := conn.GetState(); state != connectivity.Ready; state = conn.GetState() {
		if !conn.WaitForStateChange(ctx, state) {
			conn.Close()
			return nil, fmt.Errorf("connecting to hub %s: %w", target, ctx.Err())
		}
	}
	return &GRPCComm{conn: conn, rank: rank, size: size}, nil
}

func (c *GRPCComm) Rank() int { return c.rank }
func (c *GRPCComm) Size() int { return c.size }

func (c *GRPCComm) Close() error {
	return c.conn.Close()
}

func (c *GRPCComm) Broadcast(ctx context.Context, data []float64, root int) ([]float64, error) {
	if err := checkRoot(root, c.size); err != nil {
		return nil, err
	}
	e := exchange{Op: opBroadcast, Root: root}
	if c.rank == root {
		e.Floats = data
	}
	reply, err := c.exchange(ctx, e)
	if err != nil {
		return nil, err
	}
	return toFloats(reply.GetFields()["floats"]), nil
}

func (c *GRPCComm) Gather(ctx context.Context, local []int, root int) ([][]int, error) {
	if err := checkRoot(root, c.size); err != nil {
		return nil, err
	}
	reply, err := c.exchange(ctx, exchange{Op: opGather, Root: root, Ints: local})
	if err != nil {
		return nil, err
	}
	if c.rank != root {
		return nil, nil
	}

	lists := reply.GetFields()["gathered"].GetListValue().GetValues()
	if len(lists) != c.size {
		return nil, fmt.Errorf("%w: gathered %d contributions, world has %d",
			ErrMismatch, len(lists), c.size)
	}
	all := make([][]int, c.size)
	for p, l := range lists {
		if all[p], err = toInts(l); err != nil {
			return nil, fmt.Errorf("contribution of rank %d: %w", p, err)
		}
	}
	return all, nil
}

func (c *GRPCComm) exchange(ctx context.Context, e exchange) (*structpb.Struct, error) {
	e.Seq = c.seq.Add(1) - 1
	e.Rank = c.rank
	e.Size = c.size
	req, err := e.encode()
	if err != nil {
		return nil, fmt.Errorf("encoding %s round %d: %w", e.Op, e.Seq, err)
	}
	reply := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, exchangeMethod, req, reply); err != nil {
		return nil, fmt.Errorf("rank %d %s round %d: %w", c.rank, e.Op, e.Seq, err)
	}
	return reply, nil
}
