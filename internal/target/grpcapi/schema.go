// Package grpcapi binds the restaurant service's gRPC API.
//
// The RestaurantService schema is assembled at startup from descriptors
// rather than generated stubs, the same way a load tool loads the service's
// .proto at runtime. Messages are dynamicpb values and travel through the
// stock gRPC proto codec, so the wire format is identical to generated code.
package grpcapi

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

const ServiceName = "RestaurantService"

// Method names of RestaurantService.
const (
	MethodCreateRestaurant  = "CreateRestaurant"
	MethodUpdateMenu        = "UpdateMenu"
	MethodDeleteRestaurant  = "DeleteRestaurant"
	MethodGetRestaurantByID = "GetRestaurantById"
	MethodGetRestaurants    = "GetRestaurants"
)

// Schema is a resolved RestaurantService definition.
type Schema struct {
	pkg     string
	service protoreflect.ServiceDescriptor
}

// NewSchema builds the service under the given proto package. An empty
// package yields the bare "RestaurantService" name.
func NewSchema(pkg string) (*Schema, error) {
	fd, err := protodesc.NewFile(fileProto(pkg), new(protoregistry.Files))
	if err != nil {
		return nil, fmt.Errorf("build restaurant service schema: %w", err)
	}
	svc := fd.Services().ByName(ServiceName)
	if svc == nil {
		return nil, fmt.Errorf("schema has no %s", ServiceName)
	}
	return &Schema{pkg: pkg, service: svc}, nil
}

// Package is the proto package the service was declared in.
func (s *Schema) Package() string { return s.pkg }

// ServiceFullName is the name used on the wire, e.g. "restaurant.RestaurantService".
func (s *Schema) ServiceFullName() string { return string(s.service.FullName()) }

// FullMethod returns the gRPC path for a method, e.g. "/RestaurantService/UpdateMenu".
func (s *Schema) FullMethod(method string) string {
	return "/" + s.ServiceFullName() + "/" + method
}

func (s *Schema) method(name string) protoreflect.MethodDescriptor {
	md := s.service.Methods().ByName(protoreflect.Name(name))
	if md == nil {
		panic(fmt.Sprintf("grpcapi: unknown method %s", name))
	}
	return md
}

// NewInput allocates an empty request message for the method.
func (s *Schema) NewInput(method string) *dynamicpb.Message {
	return dynamicpb.NewMessage(s.method(method).Input())
}

// NewOutput allocates an empty response message for the method.
func (s *Schema) NewOutput(method string) *dynamicpb.Message {
	return dynamicpb.NewMessage(s.method(method).Output())
}

func fileProto(pkg string) *descriptorpb.FileDescriptorProto {
	ref := func(msg string) string {
		if pkg == "" {
			return "." + msg
		}
		return "." + pkg + "." + msg
	}

	const (
		optional = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
		repeated = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
		tString  = descriptorpb.FieldDescriptorProto_TYPE_STRING
		tInt32   = descriptorpb.FieldDescriptorProto_TYPE_INT32
		tInt64   = descriptorpb.FieldDescriptorProto_TYPE_INT64
		tMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	)
	scalar := func(name string, num int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
		return &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(name),
			Number: proto.Int32(num),
			Label:  optional.Enum(),
			Type:   typ.Enum(),
		}
	}
	message := func(name string, num int32, typeName string, label descriptorpb.FieldDescriptorProto_Label) *descriptorpb.FieldDescriptorProto {
		return &descriptorpb.FieldDescriptorProto{
			Name:     proto.String(name),
			Number:   proto.Int32(num),
			Label:    label.Enum(),
			Type:     tMessage.Enum(),
			TypeName: proto.String(ref(typeName)),
		}
	}
	msg := func(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
		return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
	}
	rpc := func(name, in, out string) *descriptorpb.MethodDescriptorProto {
		return &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String(ref(in)),
			OutputType: proto.String(ref(out)),
		}
	}

	f := &descriptorpb.FileDescriptorProto{
		Name:   proto.String("api.proto"),
		Syntax: proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			msg("Address",
				scalar("street", 1, tString),
				scalar("city", 2, tString),
				scalar("state", 3, tString),
				scalar("zip", 4, tString)),
			msg("MenuItem",
				scalar("id", 1, tInt32),
				scalar("name", 2, tString),
				scalar("price", 3, tString)),
			msg("Menu",
				message("items", 1, "MenuItem", repeated)),
			msg("Restaurant",
				scalar("id", 1, tInt64),
				scalar("name", 2, tString),
				message("address", 3, "Address", optional),
				message("menu", 4, "Menu", optional)),
			msg("CreateRestaurantRequest",
				message("restaurant", 1, "Restaurant", optional)),
			msg("CreateRestaurantResponse",
				scalar("restaurant_id", 1, tInt64)),
			msg("UpdateMenuRequest",
				scalar("restaurant_id", 1, tInt64),
				message("menu", 2, "Menu", optional)),
			msg("UpdateMenuResponse"),
			msg("DeleteRestaurantRequest",
				scalar("restaurant_id", 1, tInt64)),
			msg("DeleteRestaurantResponse"),
			msg("GetRestaurantByIdRequest",
				scalar("restaurant_id", 1, tInt64)),
			msg("GetRestaurantResponse",
				message("restaurant", 1, "Restaurant", optional)),
			msg("GetRestaurantsRequest",
				scalar("offset", 1, tInt32),
				scalar("limit", 2, tInt32)),
			msg("GetRestaurantsResponse",
				message("restaurants", 1, "Restaurant", repeated),
				scalar("total", 2, tInt32)),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String(ServiceName),
			Method: []*descriptorpb.MethodDescriptorProto{
				rpc(MethodGetRestaurants, "GetRestaurantsRequest", "GetRestaurantsResponse"),
				rpc(MethodCreateRestaurant, "CreateRestaurantRequest", "CreateRestaurantResponse"),
				rpc(MethodUpdateMenu, "UpdateMenuRequest", "UpdateMenuResponse"),
				rpc(MethodGetRestaurantByID, "GetRestaurantByIdRequest", "GetRestaurantResponse"),
				rpc(MethodDeleteRestaurant, "DeleteRestaurantRequest", "DeleteRestaurantResponse"),
			},
		}},
	}
	if pkg != "" {
		f.Package = proto.String(pkg)
	}
	return f
}
