package grpcapi_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"restaurant-loadgen/internal/restaurant"
	"restaurant-loadgen/internal/stub"
	"restaurant-loadgen/internal/target/grpcapi"
)

func mustSchema(t *testing.T, pkg string) *grpcapi.Schema {
	t.Helper()
	s, err := grpcapi.NewSchema(pkg)
	require.NoError(t, err)
	return s
}

// serve starts srv on an in-memory listener and returns a pool dialing it.
func serve(t *testing.T, schema *grpcapi.Schema, srv grpcapi.RestaurantServer) *grpcapi.Pool {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	grpcapi.Register(s, schema, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	pool := grpcapi.NewPool("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

func TestSchemaNames(t *testing.T) {
	assert.Equal(t, "/RestaurantService/CreateRestaurant", mustSchema(t, "").FullMethod(grpcapi.MethodCreateRestaurant))
	assert.Equal(t, "/restaurant.v1.RestaurantService/UpdateMenu", mustSchema(t, "restaurant.v1").FullMethod(grpcapi.MethodUpdateMenu))

	v1 := mustSchema(t, "restaurant.v1")
	assert.Equal(t, "restaurant.v1", v1.Package())
	assert.Equal(t, "restaurant.v1.RestaurantService", v1.ServiceFullName())
	assert.Empty(t, mustSchema(t, "").Package())
}

func TestClientLifecycle(t *testing.T) {
	schema := mustSchema(t, "")
	svc := stub.NewService(stub.NewStore())
	pool := serve(t, schema, svc)
	c := grpcapi.NewClient(schema, pool)
	ctx := context.Background()

	id, err := c.CreateRestaurant(ctx, restaurant.Default())
	require.NoError(t, err)
	assert.Equal(t, restaurant.ID("1"), id)

	got, err := c.GetRestaurant(ctx, id)
	require.NoError(t, err)
	want := restaurant.Default()
	want.ID = 1
	assert.Equal(t, want, got)

	require.NoError(t, c.UpdateMenu(ctx, id, restaurant.ReplacementMenu()))
	got, err = c.GetRestaurant(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, restaurant.ReplacementMenu(), got.Menu)

	require.NoError(t, c.DeleteRestaurant(ctx, id))
	assert.Zero(t, svc.Store().Len())

	err = c.DeleteRestaurant(ctx, id)
	assert.Equal(t, codes.NotFound, status.Code(err))

	assert.Equal(t, 1, pool.Dials())
}

func TestClientRejectsNonNumericID(t *testing.T) {
	schema := mustSchema(t, "")
	pool := serve(t, schema, stub.NewService(stub.NewStore()))
	c := grpcapi.NewClient(schema, pool)

	err := c.UpdateMenu(context.Background(), "abc", restaurant.ReplacementMenu())
	assert.ErrorContains(t, err, "not numeric")
	err = c.DeleteRestaurant(context.Background(), "abc")
	assert.ErrorContains(t, err, "not numeric")
}

func TestInvalidRestaurantIsInvalidArgument(t *testing.T) {
	schema := mustSchema(t, "")
	pool := serve(t, schema, stub.NewService(stub.NewStore()))
	c := grpcapi.NewClient(schema, pool)

	_, err := c.CreateRestaurant(context.Background(), &restaurant.Restaurant{Name: "x"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestPackageMismatchIsUnimplemented(t *testing.T) {
	pool := serve(t, mustSchema(t, "restaurant"), stub.NewService(stub.NewStore()))
	c := grpcapi.NewClient(mustSchema(t, ""), pool)

	_, err := c.CreateRestaurant(context.Background(), restaurant.Default())
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

type zeroIDServer struct{ *stub.Service }

func (zeroIDServer) CreateRestaurant(context.Context, *restaurant.Restaurant) (int64, error) {
	return 0, nil
}

func TestZeroIDIsEmpty(t *testing.T) {
	schema := mustSchema(t, "")
	pool := serve(t, schema, zeroIDServer{stub.NewService(stub.NewStore())})
	id, err := grpcapi.NewClient(schema, pool).CreateRestaurant(context.Background(), restaurant.Default())
	require.NoError(t, err)
	assert.False(t, id.Valid())
}

func TestPoolReconnectsAfterClose(t *testing.T) {
	pool := grpcapi.NewPool("passthrough:///unused")
	c1, err := pool.Conn()
	require.NoError(t, err)
	c2, err := pool.Conn()
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	require.NoError(t, pool.Close())
	c3, err := pool.Conn()
	require.NoError(t, err)
	assert.NotSame(t, c1, c3)
	assert.Equal(t, 2, pool.Dials())
	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())
}
