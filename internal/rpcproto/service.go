package rpcproto

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified service name used in the
// grpc.ServiceDesc and by every client call, standing in for the name a
// .proto package would assign.
const ServiceName = "dataquery.QueryEngine"

// QueryEngineServer is the five-operation contract C7 exposes, matching
// spec.md §4.6 method-for-method.
type QueryEngineServer interface {
	ListDatasets(context.Context, *ListDatasetsRequest) (*ListDatasetsResponse, error)
	GetMetadata(context.Context, *GetMetadataRequest) (*GetMetadataResponse, error)
	ExecuteQuery(*ExecuteQueryRequest, QueryEngine_ExecuteQueryServer) error
	AddDataset(context.Context, *AddDatasetRequest) (*AddDatasetResponse, error)
	HealthCheck(context.Context, *HealthCheckRequest) (*HealthCheckResponse, error)
}

// QueryEngine_ExecuteQueryServer is the server-side handle for the
// streaming ExecuteQuery RPC, matching the Send-only half of a
// protoc-gen-go-grpc server-streaming method.
type QueryEngine_ExecuteQueryServer interface {
	Send(*ExecuteQueryResponse) error
	grpc.ServerStream
}

type queryEngineExecuteQueryServer struct {
	grpc.ServerStream
}

func (s *queryEngineExecuteQueryServer) Send(m *ExecuteQueryResponse) error {
	return s.ServerStream.SendMsg(m)
}

func handleListDatasets(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(ListDatasetsRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(QueryEngineServer).ListDatasets(ctx, req)
}

func handleGetMetadata(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(GetMetadataRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(QueryEngineServer).GetMetadata(ctx, req)
}

func handleAddDataset(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(AddDatasetRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(QueryEngineServer).AddDataset(ctx, req)
}

func handleHealthCheck(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(HealthCheckRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(QueryEngineServer).HealthCheck(ctx, req)
}

func handleExecuteQuery(srv interface{}, stream grpc.ServerStream) error {
	req := new(ExecuteQueryRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(QueryEngineServer).ExecuteQuery(req, &queryEngineExecuteQueryServer{stream})
}

// ServiceDesc is the hand-authored equivalent of a protoc-gen-go-grpc
// _ServiceDesc var: it registers the five RPCs, including the single
// server-streaming method, against whatever grpc.Server RegisterService
// is called on.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*QueryEngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListDatasets", Handler: handleListDatasets},
		{MethodName: "GetMetadata", Handler: handleGetMetadata},
		{MethodName: "AddDataset", Handler: handleAddDataset},
		{MethodName: "HealthCheck", Handler: handleHealthCheck},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "ExecuteQuery", Handler: handleExecuteQuery, ServerStreams: true},
	},
}

// RegisterQueryEngineServer registers srv's RPC methods against s,
// matching a protoc-gen-go-grpc RegisterXServer function.
func RegisterQueryEngineServer(s *grpc.Server, srv QueryEngineServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// QueryEngineClient is the client-side counterpart generated alongside
// QueryEngineServer, matching a protoc-gen-go-grpc client interface.
type QueryEngineClient interface {
	ListDatasets(ctx context.Context, in *ListDatasetsRequest, opts ...grpc.CallOption) (*ListDatasetsResponse, error)
	GetMetadata(ctx context.Context, in *GetMetadataRequest, opts ...grpc.CallOption) (*GetMetadataResponse, error)
	ExecuteQuery(ctx context.Context, in *ExecuteQueryRequest, opts ...grpc.CallOption) (QueryEngine_ExecuteQueryClient, error)
	AddDataset(ctx context.Context, in *AddDatasetRequest, opts ...grpc.CallOption) (*AddDatasetResponse, error)
	HealthCheck(ctx context.Context, in *HealthCheckRequest, opts ...grpc.CallOption) (*HealthCheckResponse, error)
}

// QueryEngine_ExecuteQueryClient is the client-side handle for the
// streaming ExecuteQuery RPC.
type QueryEngine_ExecuteQueryClient interface {
	Recv() (*ExecuteQueryResponse, error)
	grpc.ClientStream
}

type queryEngineClient struct {
	cc grpc.ClientConnInterface
}

// NewQueryEngineClient wraps a grpc.ClientConnInterface (a *grpc.ClientConn
// in production, or a fake for tests) with the five typed RPC methods.
func NewQueryEngineClient(cc grpc.ClientConnInterface) QueryEngineClient {
	return &queryEngineClient{cc: cc}
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func (c *queryEngineClient) ListDatasets(ctx context.Context, in *ListDatasetsRequest, opts ...grpc.CallOption) (*ListDatasetsResponse, error) {
	out := new(ListDatasetsResponse)
	if err := c.cc.Invoke(ctx, fullMethod("ListDatasets"), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *queryEngineClient) GetMetadata(ctx context.Context, in *GetMetadataRequest, opts ...grpc.CallOption) (*GetMetadataResponse, error) {
	out := new(GetMetadataResponse)
	if err := c.cc.Invoke(ctx, fullMethod("GetMetadata"), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *queryEngineClient) AddDataset(ctx context.Context, in *AddDatasetRequest, opts ...grpc.CallOption) (*AddDatasetResponse, error) {
	out := new(AddDatasetResponse)
	if err := c.cc.Invoke(ctx, fullMethod("AddDataset"), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *queryEngineClient) HealthCheck(ctx context.Context, in *HealthCheckRequest, opts ...grpc.CallOption) (*HealthCheckResponse, error) {
	out := new(HealthCheckResponse)
	if err := c.cc.Invoke(ctx, fullMethod("HealthCheck"), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *queryEngineClient) ExecuteQuery(ctx context.Context, in *ExecuteQueryRequest, opts ...grpc.CallOption) (QueryEngine_ExecuteQueryClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], fullMethod("ExecuteQuery"), opts...)
	if err != nil {
		return nil, err
	}
	x := &queryEngineExecuteQueryClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type queryEngineExecuteQueryClient struct {
	grpc.ClientStream
}

func (x *queryEngineExecuteQueryClient) Recv() (*ExecuteQueryResponse, error) {
	m := new(ExecuteQueryResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
