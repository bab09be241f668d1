package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"hayoungplace/domain"
)

const PlaceReadServiceName = "hayoung.place.v1.PlaceReadService"

type PlaceReader interface {
	GetPlace(ctx context.Context, id string) (domain.Place, error)
}

type CommentCounter interface {
	Count(ctx context.Context, placeID string) (int64, error)
}

// PlaceReadServer answers read-only place lookups for other services. The
// messages are well-known types so no generated stubs are needed.
type PlaceReadServer struct {
	places   PlaceReader
	comments CommentCounter
}

func NewPlaceReadServer(places PlaceReader, comments CommentCounter) *PlaceReadServer {
	return &PlaceReadServer{places: places, comments: comments}
}

func (s *PlaceReadServer) GetPlace(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "place id is required")
	}

	p, err := s.places.GetPlace(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return placeStruct(p)
}

func (s *PlaceReadServer) CountComments(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.Int64Value, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "place id is required")
	}

	n, err := s.comments.Count(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Int64(n), nil
}

func placeStruct(p domain.Place) (*structpb.Struct, error) {
	images := make([]any, 0, len(p.ImageURLs))
	for _, u := range p.ImageURLs {
		images = append(images, u)
	}

	out, err := structpb.NewStruct(map[string]any{
		"id":           p.ID,
		"name":         p.Name,
		"address":      p.Address,
		"placeUrl":     p.PlaceURL,
		"category":     string(p.Category),
		"subCategory":  string(p.SubCategory),
		"description":  p.Description,
		"longitude":    p.Location.Longitude(),
		"latitude":     p.Location.Latitude(),
		"imageUrls":    images,
		"viewCount":    float64(p.ViewCount),
		"commentCount": float64(p.CommentCount),
		"createdAt":    p.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updatedAt":    p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		zap.L().Error("Failed to encode place", zap.String("id", p.ID), zap.Error(err))
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func toStatus(err error) error {
	var code codes.Code
	switch domain.KindOf(err) {
	case domain.KindValidation:
		code = codes.InvalidArgument
	case domain.KindNotFound:
		code = codes.NotFound
	case domain.KindInvalidPassword:
		code = codes.PermissionDenied
	case domain.KindDuplicate:
		code = codes.AlreadyExists
	default:
		zap.L().Error("Unexpected error in gRPC handler", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}

func (s *PlaceReadServer) Register(registrar grpc.ServiceRegistrar) {
	registrar.RegisterService(&placeReadServiceDesc, s)
}

type placeReadService interface {
	GetPlace(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	CountComments(context.Context, *wrapperspb.StringValue) (*wrapperspb.Int64Value, error)
}

var placeReadServiceDesc = grpc.ServiceDesc{
	ServiceName: PlaceReadServiceName,
	HandlerType: (*placeReadService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetPlace", Handler: getPlaceHandler},
		{MethodName: "CountComments", Handler: countCommentsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hayoung/place/v1/place_read.proto",
}

func getPlaceHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(placeReadService).GetPlace(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + PlaceReadServiceName + "/GetPlace"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(placeReadService).GetPlace(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func countCommentsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(placeReadService).CountComments(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + PlaceReadServiceName + "/CountComments"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(placeReadService).CountComments(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}
