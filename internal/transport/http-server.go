package transport

import (
	"context"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/media"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

const userContextKey = "user"

var usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

type (
	CustomValidator struct {
		validator *validator.Validate
	}

	HTTPServer struct {
		echo      *echo.Echo
		cfg       *config.Config
		users     *service.Users
		recipes   *service.Recipes
		reference *service.Reference
		logger    *zap.SugaredLogger
	}
)

func NewHTTPServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	users *service.Users,
	recipes *service.Recipes,
	reference *service.Reference,
	store media.Store,
	logger *zap.SugaredLogger,
) *HTTPServer {
	instance := newHTTPServer(cfg, users, recipes, reference, store, logger)
	e := instance.echo

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				listen := cfg.HTTPListen()
				logger.Infow("starting HTTP server", "listen", listen)
				if err := e.Start(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatalw("shutting down the server", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server.")
			return e.Shutdown(ctx)
		},
	})

	return instance
}

func newHTTPServer(
	cfg *config.Config,
	users *service.Users,
	recipes *service.Recipes,
	reference *service.Reference,
	store media.Store,
	logger *zap.SugaredLogger,
) *HTTPServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	instance := HTTPServer{
		echo:      e,
		cfg:       cfg,
		users:     users,
		recipes:   recipes,
		reference: reference,
		logger:    logger,
	}

	e.JSONSerializer = &JSONSerializer{}
	e.Validator = NewCustomValidator()
	e.HTTPErrorHandler = instance.HTTPErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(instance.RequestLogger())
	e.Use(middleware.BodyDumpWithConfig(middleware.BodyDumpConfig{
		Skipper: func(echo.Context) bool {
			return !logger.Desugar().Core().Enabled(zapcore.DebugLevel)
		},
		Handler: instance.dumpBody,
	}))
	e.Use(MetricsMiddleware)
	e.Use(instance.AuthMiddleware)

	api := e.Group("/api")

	usersG := api.Group("/users")
	usersG.POST("/", instance.Register)
	usersG.GET("/", instance.UserList)
	usersG.GET("/me/", instance.Me)
	usersG.POST("/set_password/", instance.SetPassword)
	usersG.PUT("/me/avatar/", instance.AvatarSet)
	usersG.DELETE("/me/avatar/", instance.AvatarDelete)
	usersG.GET("/subscriptions/", instance.Subscriptions)
	usersG.GET("/:id/", instance.UserGet)
	usersG.POST("/:id/subscribe/", instance.Subscribe)
	usersG.DELETE("/:id/subscribe/", instance.Unsubscribe)

	authG := api.Group("/auth/token")
	authG.POST("/login/", instance.Login)
	authG.POST("/logout/", instance.Logout)

	api.GET("/tags/", instance.TagList)
	api.GET("/tags/:id/", instance.TagGet)
	api.GET("/ingredients/", instance.IngredientList)
	api.GET("/ingredients/:id/", instance.IngredientGet)

	recipesG := api.Group("/recipes")
	recipesG.GET("/", instance.RecipeList)
	recipesG.POST("/", instance.RecipeCreate)
	recipesG.GET("/download_shopping_cart/", instance.DownloadShoppingCart)
	recipesG.GET("/:id/", instance.RecipeGet)
	recipesG.PATCH("/:id/", instance.RecipeUpdate)
	recipesG.DELETE("/:id/", instance.RecipeDelete)
	recipesG.GET("/:id/get-link/", instance.RecipeShortLink)
	recipesG.POST("/:id/favorite/", instance.FavoriteAdd)
	recipesG.DELETE("/:id/favorite/", instance.FavoriteRemove)
	recipesG.POST("/:id/shopping_cart/", instance.ShoppingCartAdd)
	recipesG.DELETE("/:id/shopping_cart/", instance.ShoppingCartRemove)

	e.GET("/s/:id", instance.ShortLinkRedirect)
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if local, ok := store.(*media.LocalStore); ok {
		e.Static(strings.TrimSuffix(cfg.MediaURL, "/"), local.Root())
	}

	return &instance
}

// Echo exposes the router, mostly for tests.
func (s *HTTPServer) Echo() *echo.Echo {
	return s.echo
}

// AuthMiddleware resolves the request token to a user. Requests without a
// token go through as anonymous; a bad token is rejected.
func (s *HTTPServer) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := tokenFromRequest(c.Request())
		if token == "" {
			return next(c)
		}

		user, err := s.users.Authenticate(c.Request().Context(), token)
		if err != nil {
			return err
		}

		c.Set(userContextKey, user)
		return next(c)
	}
}

func tokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get(echo.HeaderAuthorization); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if ok && strings.EqualFold(scheme, "Token") {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-Token"))
}

func (s *HTTPServer) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogMethod:   true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			if v.Status >= http.StatusInternalServerError {
				s.logger.Errorw("request", fields...)
				return nil
			}
			s.logger.Infow("request", fields...)
			return nil
		},
	})
}

func (s *HTTPServer) dumpBody(c echo.Context, reqBody, _ []byte) {
	if len(reqBody) == 0 || !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return
	}
	s.logger.Debugw("request body", "uri", c.Request().RequestURI, "body", string(censorBody(reqBody)))
}

////////

func NewCustomValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	return &CustomValidator{validator: v}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return service.ValidationError(service.CodeInvalidInput, fe.Field(), validationMessage(fe))
	}
	return service.ValidationError(service.CodeInvalidInput, "", err.Error())
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "max":
		return "ensure this field has no more than " + fe.Param() + " characters"
	case "username":
		return "enter a valid username: letters, digits and @/./+/-/_ only"
	}
	return "invalid value"
}

func BindAndValidate(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			if m, ok := he.Message.(string); ok {
				msg = m
			}
		}
		return service.ValidationError(service.CodeInvalidInput, "", msg)
	}
	return c.Validate(v)
}

// GetUserFromContext returns the authenticated user or nil for anonymous requests.
func GetUserFromContext(c echo.Context) *db.User {
	user, _ := c.Get(userContextKey).(*db.User)
	return user
}

// GetAndParseParam reads a numeric path id. Anything else cannot name an
// existing row, so it is reported as not found.
func GetAndParseParam(c echo.Context, name string) (uint64, error) {
	v := c.Param(name)
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil || id == 0 {
		return 0, service.NotFoundError(name, "invalid path param '"+name+"'")
	}
	return id, nil
}
