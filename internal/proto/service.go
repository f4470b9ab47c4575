package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "foodgram.Recipes"

	getRecipeMethod            = "/" + ServiceName + "/GetRecipe"
	downloadShoppingListMethod = "/" + ServiceName + "/DownloadShoppingList"
)

// RecipesServer is the read side of the recipe API over gRPC. Messages are
// protobuf well-known types, so there is no generated code to keep in sync.
type RecipesServer interface {
	GetRecipe(context.Context, *wrapperspb.UInt64Value) (*structpb.Struct, error)
	DownloadShoppingList(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
}

var RecipesServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RecipesServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetRecipe",
			Handler:    getRecipeHandler,
		},
		{
			MethodName: "DownloadShoppingList",
			Handler:    downloadShoppingListHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "foodgram/recipes.proto",
}

func RegisterRecipesServer(s grpc.ServiceRegistrar, srv RecipesServer) {
	s.RegisterService(&RecipesServiceDesc, srv)
}

func getRecipeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.UInt64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RecipesServer).GetRecipe(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getRecipeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RecipesServer).GetRecipe(ctx, req.(*wrapperspb.UInt64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func downloadShoppingListHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RecipesServer).DownloadShoppingList(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: downloadShoppingListMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RecipesServer).DownloadShoppingList(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

type RecipesClient struct {
	cc grpc.ClientConnInterface
}

func NewRecipesClient(cc grpc.ClientConnInterface) *RecipesClient {
	return &RecipesClient{cc: cc}
}

func (c *RecipesClient) GetRecipe(ctx context.Context, in *wrapperspb.UInt64Value, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getRecipeMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RecipesClient) DownloadShoppingList(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, downloadShoppingListMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
