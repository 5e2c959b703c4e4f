package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "path.v1.PathService"

// Full method names
const (
	SubmitPathMethod          = "/" + ServiceName + "/SubmitPath"
	SubmitLocationTrackMethod = "/" + ServiceName + "/SubmitLocationTrack"
	GetJobStatusMethod        = "/" + ServiceName + "/GetJobStatus"
	ListJobsMethod            = "/" + ServiceName + "/ListJobs"
)

// PathServiceServer is the server API for the path service. Requests and
// responses are google.protobuf.Struct documents so clients in any language
// can call the service with the well-known types alone.
type PathServiceServer interface {
	SubmitPath(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitLocationTrack(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetJobStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListJobs(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterPathServiceServer registers srv with a gRPC server
func RegisterPathServiceServer(s grpc.ServiceRegistrar, srv PathServiceServer) {
	s.RegisterService(&PathServiceDesc, srv)
}

// unaryHandler adapts one PathServiceServer method to grpc.MethodDesc
func unaryHandler(fullMethod string, call func(PathServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PathServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(PathServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// PathServiceDesc describes the path service for grpc.Server
var PathServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PathServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SubmitPath",
			Handler:    unaryHandler(SubmitPathMethod, PathServiceServer.SubmitPath),
		},
		{
			MethodName: "SubmitLocationTrack",
			Handler:    unaryHandler(SubmitLocationTrackMethod, PathServiceServer.SubmitLocationTrack),
		},
		{
			MethodName: "GetJobStatus",
			Handler:    unaryHandler(GetJobStatusMethod, PathServiceServer.GetJobStatus),
		},
		{
			MethodName: "ListJobs",
			Handler:    unaryHandler(ListJobsMethod, PathServiceServer.ListJobs),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "path/v1/path_service.proto",
}

// PathServiceClient calls the path service
type PathServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewPathServiceClient wraps a client connection
func NewPathServiceClient(cc grpc.ClientConnInterface) *PathServiceClient {
	return &PathServiceClient{cc: cc}
}

func (c *PathServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitPath queues a build of an inline path
func (c *PathServiceClient) SubmitPath(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SubmitPathMethod, in, opts...)
}

// SubmitLocationTrack queues a build of a device's location history
func (c *PathServiceClient) SubmitLocationTrack(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SubmitLocationTrackMethod, in, opts...)
}

// GetJobStatus fetches one job
func (c *PathServiceClient) GetJobStatus(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GetJobStatusMethod, in, opts...)
}

// ListJobs pages through jobs
func (c *PathServiceClient) ListJobs(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ListJobsMethod, in, opts...)
}
