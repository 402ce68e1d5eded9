package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/schoolcounsel/counsel-admin/docs"
	"github.com/schoolcounsel/counsel-admin/internal/api/handler"
	"github.com/schoolcounsel/counsel-admin/internal/api/middleware"
	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
	"github.com/schoolcounsel/counsel-admin/internal/core/ports"
	"github.com/schoolcounsel/counsel-admin/internal/infrastructure/http/handlers"
)

// Dependencies groups everything the router wires into handlers.
type Dependencies struct {
	Auth        ports.AuthService
	Provisioner ports.ProvisioningService
	ParseRoster handler.RosterParser
	Mongo       handlers.Pinger
	JWTSecret   string
	Log         zerolog.Logger
	// Metrics receives the HTTP metrics and backs /metrics. Nil selects the
	// default registry, which also holds the domain counters.
	Metrics *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Metrics != nil {
		registerer, gatherer = deps.Metrics, deps.Metrics
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "counsel",
		Subsystem:  "http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	importHandler := handler.NewImportHandler(deps.Provisioner, deps.ParseRoster)

	serial := middleware.Serialize()
	authenticated := middleware.Auth(deps.JWTSecret)
	changed := middleware.RequirePasswordChanged()

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login, serial)
	e.POST("/auth/password", authHandler.ChangePassword, serial, authenticated)
	e.GET("/me", authHandler.Me, serial, authenticated, changed)

	// --- Admin routes ---
	admin := e.Group("/admin", serial, authenticated, changed, middleware.RBAC(domain.RoleAdmin))
	admin.POST("/imports/preview", importHandler.Preview)
	admin.POST("/imports", importHandler.Import)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Mongo)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: is MongoDB reachable?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))

	// --- API docs ---
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
