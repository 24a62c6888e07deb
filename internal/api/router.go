package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/logistream/fleet-telemetry/internal/api/handler"
	"github.com/logistream/fleet-telemetry/internal/api/middleware"
	"github.com/logistream/fleet-telemetry/internal/core/domain"
	"github.com/logistream/fleet-telemetry/internal/core/ports"
	"github.com/logistream/fleet-telemetry/internal/core/service"
	mongodb "github.com/logistream/fleet-telemetry/internal/infrastructure/db/mongo"
	redisdb "github.com/logistream/fleet-telemetry/internal/infrastructure/db/redis"
	"github.com/logistream/fleet-telemetry/internal/infrastructure/http/handlers"
)

// NewRouter builds and returns the Echo instance with all routes registered.
//
// bus is taken as a BatchMessageBus because the Kafka adapter offers ordered
// multi-record sends; passing it twice to the telemetry service is the
// construction-time capability selection.
func NewRouter(db *mongo.Database, rdb *redis.Client, bus ports.BatchMessageBus, jwtSecret string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("telemetry_http"))

	// --- Dependencies ---
	authRepo := mongodb.NewAuthRepository(db)
	authService := service.NewAuthService(authRepo, jwtSecret, 24*time.Hour)
	authHandler := handler.NewAuthHandler(authService)

	telemetryRepo := mongodb.NewTelemetryRepository(db)
	latestCache := redisdb.NewLatestCache(rdb)
	telemetryService := service.NewTelemetryService(telemetryRepo, bus, bus, latestCache, log)
	telemetryHandler := handler.NewTelemetryHandler(telemetryService)

	authRequired := middleware.Auth(jwtSecret)
	canIngest := middleware.RequireRole(domain.RoleAdmin, domain.RoleOperator)
	canQuery := middleware.RequireRole(domain.RoleAdmin, domain.RoleViewer)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(db, rdb, bus)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Metrics ---
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Telemetry routes ---
	telemetry := e.Group("/api/v1/telemetry", authRequired)
	telemetry.POST("", telemetryHandler.Ingest, canIngest)
	telemetry.POST("/batch", telemetryHandler.IngestBatch, canIngest)
	telemetry.GET("/devices/:deviceId", telemetryHandler.ListByDevice, canQuery)
	telemetry.GET("/devices/:deviceId/latest", telemetryHandler.LatestByDevice, canQuery)
	telemetry.GET("/trucks/:truckId", telemetryHandler.ListByTruck, canQuery)
	telemetry.GET("/range", telemetryHandler.ListByTimeRange, canQuery)

	return e
}
