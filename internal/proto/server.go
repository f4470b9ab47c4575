package proto

import (
	"context"
	"net"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

const authorizationKey = "authorization"

var kindCodes = map[service.Kind]codes.Code{
	service.KindValidation:   codes.InvalidArgument,
	service.KindNotFound:     codes.NotFound,
	service.KindConflict:     codes.AlreadyExists,
	service.KindState:        codes.FailedPrecondition,
	service.KindPermission:   codes.PermissionDenied,
	service.KindUnauthorized: codes.Unauthenticated,
}

type RecipesServerImpl struct {
	recipes *service.Recipes
	users   *service.Users
	logger  *zap.SugaredLogger
}

func NewGRPCServer(lc fx.Lifecycle, cfg *config.Config, recipes *service.Recipes, users *service.Users, logger *zap.SugaredLogger) *RecipesServerImpl {
	instance := NewRecipesServerImpl(recipes, users, logger)

	grpcServer := grpc.NewServer()
	RegisterRecipesServer(grpcServer, instance)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", cfg.GRPCListen())
			if err != nil {
				return errors.Wrap(err, "grpc listen")
			}
			logger.Infow("starting GRPC server", "listen", lis.Addr().String())

			go func() {
				if err := grpcServer.Serve(lis); err != nil {
					logger.Fatalw("failed to serve grpc", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping GRPC server.")
			grpcServer.GracefulStop()
			return nil
		},
	})

	return instance
}

func NewRecipesServerImpl(recipes *service.Recipes, users *service.Users, logger *zap.SugaredLogger) *RecipesServerImpl {
	return &RecipesServerImpl{
		recipes: recipes,
		users:   users,
		logger:  logger,
	}
}

func (s *RecipesServerImpl) GetRecipe(ctx context.Context, req *wrapperspb.UInt64Value) (*structpb.Struct, error) {
	viewer, err := s.viewer(ctx)
	if err != nil {
		return nil, s.status(err)
	}

	recipe, err := s.recipes.Get(ctx, viewer, req.GetValue())
	if err != nil {
		return nil, s.status(err)
	}

	out, err := toStruct(recipe)
	if err != nil {
		return nil, s.status(err)
	}
	return out, nil
}

func (s *RecipesServerImpl) DownloadShoppingList(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	viewer, err := s.viewer(ctx)
	if err != nil {
		return nil, s.status(err)
	}

	text, err := s.recipes.ShoppingList(ctx, viewer)
	if err != nil {
		return nil, s.status(err)
	}
	return wrapperspb.String(text), nil
}

// viewer resolves the caller from "authorization" metadata. No token means
// an anonymous caller.
func (s *RecipesServerImpl) viewer(ctx context.Context) (*db.User, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, nil
	}
	values := md.Get(authorizationKey)
	if len(values) == 0 {
		return nil, nil
	}

	token := strings.TrimSpace(values[0])
	if scheme, rest, found := strings.Cut(token, " "); found && strings.EqualFold(scheme, "Token") {
		token = strings.TrimSpace(rest)
	}
	if token == "" {
		return nil, nil
	}
	return s.users.Authenticate(ctx, token)
}

func (s *RecipesServerImpl) status(err error) error {
	if e, ok := service.AsError(err); ok {
		code, known := kindCodes[e.Kind]
		if !known {
			code = codes.InvalidArgument
		}
		return status.Error(code, e.Message)
	}
	s.logger.Errorw("grpc request failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}

func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal view")
	}
	fields := map[string]interface{}{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Wrap(err, "unmarshal view")
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, errors.Wrap(err, "build struct")
	}
	return out, nil
}
