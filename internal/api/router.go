package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/fieldwork/backoffice-api/docs"
	"github.com/fieldwork/backoffice-api/internal/api/handler"
	"github.com/fieldwork/backoffice-api/internal/api/middleware"
	"github.com/fieldwork/backoffice-api/internal/core/domain"
	"github.com/fieldwork/backoffice-api/internal/core/ports"
	"github.com/fieldwork/backoffice-api/internal/core/resources"
	"github.com/fieldwork/backoffice-api/internal/core/service"
	redisstore "github.com/fieldwork/backoffice-api/internal/infrastructure/db/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Catalog   *resources.Catalog
	StoreName string // "mongo" or "postgres", reported by the readiness probe
	Stores    ports.StoreProvider
	// Redis is optional. When nil, creates ignore Idempotency-Key.
	Redis          *redis.Client
	IdempotencyTTL time.Duration
	Messages       domain.Messages
	JWTSecret      string
	Logger         zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("backoffice"))

	// --- Operational routes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.StoreName, deps.Stores, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Resource routes ---
	var opts []service.Option
	if deps.Redis != nil {
		opts = append(opts, service.WithIdempotency(redisstore.NewIdempotencyStore(deps.Redis, deps.IdempotencyTTL)))
	}
	auth := middleware.Auth(deps.JWTSecret)

	for _, def := range deps.Catalog.All() {
		svc := service.NewLifecycle(def, deps.Stores.Store(def.Collection), deps.Messages, deps.Logger, opts...)
		h := handler.NewResourceHandler(def.Name, svc)
		write := middleware.RequireRole(def.WriteRole)
		purge := middleware.RequireRole(def.PurgeRole)

		g := e.Group("/" + def.Name)
		g.GET("", h.FindAll)
		g.GET("/:id", h.FindOne)
		g.POST("", h.Create, auth, write)
		g.PUT("/restore", h.Restore, auth, write)
		g.DELETE("/hard-remove", h.HardRemove, auth, purge)
		g.PUT("/:id", h.Update, auth, write)
		g.DELETE("/:id", h.Remove, auth, write)
	}

	return e
}
