package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/reflect/protoreflect"

	"restaurant-loadgen/internal/restaurant"
)

// RestaurantServer is the server side of RestaurantService expressed in
// domain types. Errors should carry a gRPC status.
type RestaurantServer interface {
	CreateRestaurant(ctx context.Context, r *restaurant.Restaurant) (int64, error)
	UpdateMenu(ctx context.Context, id int64, m *restaurant.Menu) error
	DeleteRestaurant(ctx context.Context, id int64) error
	GetRestaurant(ctx context.Context, id int64) (*restaurant.Restaurant, error)
	GetRestaurants(ctx context.Context, offset, limit int) ([]*restaurant.Restaurant, int, error)
}

type unaryFunc func(ctx context.Context, srv RestaurantServer, in, out protoreflect.Message) error

// Register installs srv on s under the schema's service name.
func Register(s *grpc.Server, schema *Schema, srv RestaurantServer) {
	s.RegisterService(schema.ServiceDesc(), srv)
}

// ServiceDesc describes the service for grpc.Server.RegisterService.
func (s *Schema) ServiceDesc() *grpc.ServiceDesc {
	handlers := map[string]unaryFunc{
		MethodCreateRestaurant: func(ctx context.Context, srv RestaurantServer, in, out protoreflect.Message) error {
			id, err := srv.CreateRestaurant(ctx, readRestaurant(child(in, "restaurant")))
			if err != nil {
				return err
			}
			setInt64(out, "restaurant_id", id)
			return nil
		},
		MethodUpdateMenu: func(ctx context.Context, srv RestaurantServer, in, _ protoreflect.Message) error {
			return srv.UpdateMenu(ctx, getInt64(in, "restaurant_id"), readMenu(child(in, "menu")))
		},
		MethodDeleteRestaurant: func(ctx context.Context, srv RestaurantServer, in, _ protoreflect.Message) error {
			return srv.DeleteRestaurant(ctx, getInt64(in, "restaurant_id"))
		},
		MethodGetRestaurantByID: func(ctx context.Context, srv RestaurantServer, in, out protoreflect.Message) error {
			r, err := srv.GetRestaurant(ctx, getInt64(in, "restaurant_id"))
			if err != nil {
				return err
			}
			putRestaurant(out.Mutable(field(out, "restaurant")).Message(), r)
			return nil
		},
		MethodGetRestaurants: func(ctx context.Context, srv RestaurantServer, in, out protoreflect.Message) error {
			rs, total, err := srv.GetRestaurants(ctx, int(getInt32(in, "offset")), int(getInt32(in, "limit")))
			if err != nil {
				return err
			}
			list := out.Mutable(field(out, "restaurants")).List()
			for _, r := range rs {
				e := list.NewElement()
				putRestaurant(e.Message(), r)
				list.Append(e)
			}
			setInt32(out, "total", int32(total))
			return nil
		},
	}

	desc := &grpc.ServiceDesc{
		ServiceName: s.ServiceFullName(),
		HandlerType: (*RestaurantServer)(nil),
		Metadata:    "api.proto",
	}
	for name, fn := range handlers {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: name,
			Handler:    s.unaryHandler(name, fn),
		})
	}
	return desc
}

func (s *Schema) unaryHandler(method string, fn unaryFunc) grpc.MethodHandler {
	fullMethod := s.FullMethod(method)
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := s.NewInput(method)
		if err := dec(in); err != nil {
			return nil, err
		}
		call := func(ctx context.Context, req any) (any, error) {
			out := s.NewOutput(method)
			if err := fn(ctx, srv.(RestaurantServer), req.(protoreflect.Message), out); err != nil {
				return nil, err
			}
			return out, nil
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, call)
	}
}
