package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"hayoungplace/domain"
)

type stubPlaces map[string]domain.Place

func (s stubPlaces) GetPlace(_ context.Context, id string) (domain.Place, error) {
	if id == "boom" {
		panic("storage exploded")
	}
	p, ok := s[id]
	if !ok {
		return domain.Place{}, domain.NewNotFoundError("place %s not found", id)
	}
	return p, nil
}

type stubCounter map[string]int64

func (s stubCounter) Count(_ context.Context, placeID string) (int64, error) {
	return s[placeID], nil
}

func dialTestServer(t *testing.T) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := newServer(lis)

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	NewPlaceReadServer(
		stubPlaces{"p1": {
			ID:          "p1",
			Name:        "Cafe Onion",
			Location:    domain.NewPoint(127.05, 37.54),
			Category:    domain.CategoryCafe,
			SubCategory: domain.SubCategoryBakery,
			ImageURLs:   []string{"https://img/1.png"},
			ViewCount:   7,
			CreatedAt:   now,
			UpdatedAt:   now,
		}},
		stubCounter{"p1": 3},
	).Register(srv.GetGRPCServer())
	srv.SetServing(PlaceReadServiceName, true)

	go func() { _ = srv.Start() }()
	t.Cleanup(srv.GracefulStop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestPlaceReadServer_GetPlace(t *testing.T) {
	conn := dialTestServer(t)
	ctx := context.Background()

	out := new(structpb.Struct)
	err := conn.Invoke(ctx, "/"+PlaceReadServiceName+"/GetPlace", wrapperspb.String("p1"), out)
	require.NoError(t, err)

	fields := out.AsMap()
	assert.Equal(t, "Cafe Onion", fields["name"])
	assert.Equal(t, "BAKERY", fields["subCategory"])
	assert.Equal(t, 127.05, fields["longitude"])
	assert.Equal(t, 7.0, fields["viewCount"])
	assert.Equal(t, []any{"https://img/1.png"}, fields["imageUrls"])
}

func TestPlaceReadServer_Errors(t *testing.T) {
	conn := dialTestServer(t)
	ctx := context.Background()

	tests := []struct {
		id   string
		code codes.Code
	}{
		{id: "", code: codes.InvalidArgument},
		{id: "missing", code: codes.NotFound},
		{id: "boom", code: codes.Internal},
	}

	for _, tt := range tests {
		err := conn.Invoke(ctx, "/"+PlaceReadServiceName+"/GetPlace", wrapperspb.String(tt.id), new(structpb.Struct))
		assert.Equal(t, tt.code, status.Code(err), "id %q", tt.id)
	}
}

func TestPlaceReadServer_CountComments(t *testing.T) {
	conn := dialTestServer(t)

	out := new(wrapperspb.Int64Value)
	err := conn.Invoke(context.Background(), "/"+PlaceReadServiceName+"/CountComments", wrapperspb.String("p1"), out)
	require.NoError(t, err)
	assert.EqualValues(t, 3, out.GetValue())
}

func TestHealth(t *testing.T) {
	conn := dialTestServer(t)

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(context.Background(),
		&grpc_health_v1.HealthCheckRequest{Service: PlaceReadServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestToStatus(t *testing.T) {
	assert.Equal(t, codes.PermissionDenied, status.Code(toStatus(domain.NewInvalidPasswordError("nope"))))
	assert.Equal(t, codes.AlreadyExists, status.Code(toStatus(domain.NewDuplicateError("dup"))))
	assert.Equal(t, codes.Internal, status.Code(toStatus(assert.AnError)))
}
