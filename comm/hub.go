package comm

import (
	"context"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/notargets/DGLocator/utils"
)

// round is the hub side state of one collective call, shared by the size
// ranks that issue it
type round struct {
	mu      sync.Mutex
	op      string
	root    int
	floats  [][]float64
	ints    [][]int
	present []bool
	arrived int
	served  int
	ready   chan struct{} // closed once every waiting rank can be answered
}

func newRound(op string, root, size int) *round {
	return &round{
		op:      op,
		root:    root,
		floats:  make([][]float64, size),
		ints:    make([][]int, size),
		present: make([]bool, size),
		ready:   make(chan struct{}),
	}
}

// Hub is the rendezvous point of a gRPC world. Every rank dials the hub and
// each collective becomes one Exchange call per rank, matched by the
// sequence number the client assigns to its calls.
type Hub struct {
	size   int
	rounds *xsync.MapOf[uint64, *round]
	log    utils.Logger
}

var _ collectiveServer = (*Hub)(nil)

func NewHub(size int, log utils.Logger) *Hub {
	if log == nil {
		log = utils.NopLogger()
	}
	return &Hub{
		size:   size,
		rounds: xsync.NewMapOf[uint64, *round](),
		log:    log,
	}
}

// Register attaches the collective service to s
func (h *Hub) Register(s *grpc.Server) {
	s.RegisterService(&collectiveServiceDesc, h)
}

// Pending is the number of rounds not yet answered on every rank
func (h *Hub) Pending() int {
	return h.rounds.Size()
}

func (h *Hub) Exchange(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	e, err := decodeExchange(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "malformed exchange: %v", err)
	}
	if e.Size != h.size {
		return nil, status.Errorf(codes.FailedPrecondition,
			"rank %d believes the world has %d ranks, hub serves %d", e.Rank, e.Size, h.size)
	}
	if e.Rank < 0 || e.Rank >= h.size || e.Root < 0 || e.Root >= h.size {
		return nil, status.Errorf(codes.InvalidArgument, "rank %d root %d outside world of %d",
			e.Rank, e.Root, h.size)
	}
	if e.Op != opBroadcast && e.Op != opGather {
		return nil, status.Errorf(codes.InvalidArgument, "unknown collective %q", e.Op)
	}

	r, _ := h.rounds.LoadOrCompute(e.Seq, func() *round {
		return newRound(e.Op, e.Root, h.size)
	})
	if err := h.contribute(r, e); err != nil {
		return nil, err
	}
	defer h.finish(e.Seq, r)

	wait := e.Op == opBroadcast || e.Rank == e.Root
	if wait {
		select {
		case <-r.ready:
		case <-ctx.Done():
			h.log.WarnCtx(ctx, "collective abandoned", "seq", e.Seq, "rank", e.Rank, "op", e.Op)
			return nil, status.FromContextError(ctx.Err()).Err()
		}
	}

	reply := map[string]any{}
	switch {
	case e.Op == opBroadcast:
		reply["floats"] = floatList(r.floats[r.root])
	case e.Rank == e.Root:
		gathered := make([]any, h.size)
		for p := range gathered {
			gathered[p] = intList(r.ints[p])
		}
		reply["gathered"] = gathered
	}
	out, err := structpb.NewStruct(reply)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding reply: %v", err)
	}
	return out, nil
}

func (h *Hub) contribute(r *round, e exchange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.op != e.Op || r.root != e.Root {
		return status.Errorf(codes.FailedPrecondition,
			"round %d: rank %d issued %s from root %d, others issued %s from root %d",
			e.Seq, e.Rank, e.Op, e.Root, r.op, r.root)
	}
	if r.present[e.Rank] {
		return status.Errorf(codes.AlreadyExists, "round %d: rank %d already contributed", e.Seq, e.Rank)
	}
	r.present[e.Rank] = true
	r.floats[e.Rank] = e.Floats
	r.ints[e.Rank] = e.Ints
	r.arrived++

	switch {
	case e.Op == opBroadcast && e.Rank == e.Root:
		close(r.ready)
	case e.Op == opGather && r.arrived == len(r.present):
		close(r.ready)
	}
	return nil
}

// finish drops the round once every rank has been answered
func (h *Hub) finish(seq uint64, r *round) {
	r.mu.Lock()
	r.served++
	done := r.served == len(r.present)
	r.mu.Unlock()
	if done {
		h.rounds.Delete(seq)
	}
}
