package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/porchlite/porchlite/docs"
	"github.com/porchlite/porchlite/internal/api/handler"
	"github.com/porchlite/porchlite/internal/api/middleware"
	"github.com/porchlite/porchlite/internal/core/domain"
	"github.com/porchlite/porchlite/internal/core/ports"
)

// Dependencies groups what the router wires into handlers. Mongo and Redis
// may be nil; they are only used by the readiness probe.
type Dependencies struct {
	App       ports.Coordinator
	Activity  handler.ActivityTracker
	Roles     handler.RoleWriter
	Mongo     *mongo.Database
	Redis     *redis.Client
	JWTSecret string
	Log       zerolog.Logger

	// Registry defaults to the global prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "porchlite",
		Registerer: registerer,
	}))

	authHandler := handler.NewAuthHandler(deps.App)
	readinessHandler := handler.NewReadinessHandler(deps.App)
	propertyHandler := handler.NewPropertyHandler(deps.App)
	activityHandler := handler.NewActivityHandler(deps.Activity)
	authMiddleware := middleware.Auth(deps.JWTSecret)
	signedIn := middleware.RequireSession(deps.App)
	ready := middleware.RequireReady(deps.App)

	// --- Session ---
	e.POST("/auth/sign-in", authHandler.SignIn)
	e.POST("/auth/sign-up", authHandler.SignUp)

	// Everything below acts on the device session, so the token must
	// belong to the user who is signed in.
	session := []echo.MiddlewareFunc{authMiddleware, signedIn}
	e.POST("/auth/sign-out", authHandler.SignOut, session...)
	e.POST("/auth/refresh", authHandler.Refresh, session...)
	e.GET("/session", authHandler.Session, session...)

	// --- Readiness and permissions ---
	e.GET("/readiness", readinessHandler.Readiness, session...)
	e.GET("/permissions", readinessHandler.Permissions, session...)
	e.GET("/permissions/:capability", readinessHandler.Can, session...)

	// --- Properties ---
	e.GET("/properties", propertyHandler.List, session...)
	e.PUT("/properties/current", propertyHandler.Select, session...)
	e.POST("/properties/reload", propertyHandler.Reload, session...)

	// --- Activity signals ---
	e.POST("/activity", activityHandler.Record, session...)
	e.POST("/activity/visibility", activityHandler.Visibility, session...)
	e.POST("/activity/network", activityHandler.Network, session...)

	// --- Guarded pages ---
	app := e.Group("/app", authMiddleware, signedIn, ready)
	app.GET("/property", propertyHandler.Current)

	if deps.Roles != nil {
		adminHandler := handler.NewAdminHandler(deps.Roles, deps.App)
		admin := e.Group("/admin", authMiddleware, signedIn, ready, middleware.RequireCapability(deps.App, domain.CapUserManagement))
		admin.PUT("/users/:id/role", adminHandler.SetRole)
	}

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
