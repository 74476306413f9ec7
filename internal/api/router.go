package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/malina/auth-service/docs"
	"github.com/malina/auth-service/internal/api/handler"
	"github.com/malina/auth-service/internal/api/middleware"
	"github.com/malina/auth-service/internal/core/domain"
	"github.com/malina/auth-service/internal/core/ports"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Auth   ports.AuthService
	Users  ports.UserDirectory
	Tokens ports.TokenCodec
	// Checks are run by the readiness probe, keyed by dependency name.
	Checks map[string]handler.Check
	Logger zerolog.Logger
	// AllowSelfPromotion registers GET /example/get-admin.
	AllowSelfPromotion bool
	// MetricsRegisterer receives the HTTP request metrics. Defaults to
	// prometheus.DefaultRegisterer.
	MetricsRegisterer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestMetrics(deps.MetricsRegisterer))
	e.Use(middleware.RequestLogger(deps.Logger))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Logger)
	auth := e.Group("/auth")
	auth.POST("/sign-up", authHandler.SignUp)
	auth.POST("/sign-in", authHandler.SignIn)

	// --- Protected example routes ---
	exampleHandler := handler.NewExampleHandler(deps.Users, deps.Logger)
	example := e.Group("/example", middleware.Authenticate(deps.Tokens))
	example.GET("", exampleHandler.Example)
	example.GET("/admin", exampleHandler.Admin, middleware.RequireRole(domain.RoleAdmin))
	if deps.AllowSelfPromotion {
		example.GET("/get-admin", exampleHandler.GetAdmin)
	}

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler(deps.Checks)
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestMetrics records request count, latency and sizes under auth_http_*,
// labelled with the route template. Scrapes of /metrics are not counted.
func requestMetrics(reg prometheus.Registerer) echo.MiddlewareFunc {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "auth",
		Subsystem:  "http",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	})
}
