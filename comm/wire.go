package comm

import (
	"context"
	"fmt"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName    = "dglocator.Collective"
	exchangeMethod = "/" + serviceName + "/Exchange"
)

// collectiveServer is implemented by Hub. Requests and replies are
// structpb.Struct messages, see exchange.
type collectiveServer interface {
	Exchange(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var collectiveServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*collectiveServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Exchange",
			Handler:    exchangeHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dglocator/collective",
}

func exchangeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(collectiveServer).Exchange(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: exchangeMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(collectiveServer).Exchange(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// exchange is one rank's contribution to one collective round
type exchange struct {
	Seq    uint64
	Rank   int
	Size   int
	Root   int
	Op     string
	Floats []float64
	Ints   []int
}

func (e exchange) encode() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"seq":    float64(e.Seq),
		"rank":   e.Rank,
		"size":   e.Size,
		"root":   e.Root,
		"op":     e.Op,
		"floats": floatList(e.Floats),
		"ints":   intList(e.Ints),
	})
}

func decodeExchange(s *structpb.Struct) (exchange, error) {
	f := s.GetFields()
	var e exchange
	var err error
	if e.Seq, err = wholeNumber(f, "seq"); err != nil {
		return e, err
	}
	ints := map[string]*int{"rank": &e.Rank, "size": &e.Size, "root": &e.Root}
	for name, dst := range ints {
		v, err := wholeNumber(f, name)
		if err != nil {
			return e, err
		}
		*dst = int(v)
	}
	e.Op = f["op"].GetStringValue()
	e.Floats = toFloats(f["floats"])
	if e.Ints, err = toInts(f["ints"]); err != nil {
		return e, err
	}
	return e, nil
}

func wholeNumber(f map[string]*structpb.Value, name string) (uint64, error) {
	v, ok := f[name]
	if !ok {
		return 0, fmt.Errorf("missing field %q", name)
	}
	x := v.GetNumberValue()
	if x < 0 || x != math.Trunc(x) {
		return 0, fmt.Errorf("field %q: %g is not a count", name, x)
	}
	return uint64(x), nil
}

func floatList(xs []float64) []any {
	l := make([]any, len(xs))
	for i, x := range xs {
		l[i] = x
	}
	return l
}

func intList(xs []int) []any {
	l := make([]any, len(xs))
	for i, x := range xs {
		l[i] = x
	}
	return l
}

func toFloats(v *structpb.Value) []float64 {
	vals := v.GetListValue().GetValues()
	xs := make([]float64, len(vals))
	for i, x := range vals {
		xs[i] = x.GetNumberValue()
	}
	return xs
}

func toInts(v *structpb.Value) ([]int, error) {
	vals := v.GetListValue().GetValues()
	xs := make([]int, len(vals))
	for i, x := range vals {
		n := x.GetNumberValue()
		if n != math.Trunc(n) {
			return nil, fmt.Errorf("non integer value %g", n)
		}
		xs[i] = int(n)
	}
	return xs, nil
}
