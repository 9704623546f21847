package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/dkarolys/fleetpulse/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1, 15s per-request timeout. Mutating endpoints sit
	// behind the bearer token gate.
	v1 := app.Group("/v1")
	auth := RequireToken(deps.APIToken)
	v1.Get("/companies", timeout.NewWithContext(ListCompaniesHandler(deps), 15*time.Second))
	v1.Get("/companies/:slug", timeout.NewWithContext(GetCompanyHandler(deps), 15*time.Second))
	v1.Get("/companies/:slug/vehicles", timeout.NewWithContext(CompanyVehiclesHandler(deps), 15*time.Second))
	v1.Get("/companies/:slug/drivers", timeout.NewWithContext(CompanyDriversHandler(deps), 15*time.Second))
	v1.Get("/companies/:slug/positions", timeout.NewWithContext(CompanyPositionsHandler(deps), 15*time.Second))

	v1.Post("/vehicles", auth, timeout.NewWithContext(RegisterVehicleHandler(deps), 15*time.Second))
	v1.Get("/vehicles/:id", timeout.NewWithContext(GetVehicleHandler(deps), 15*time.Second))
	v1.Get("/vehicles/:id/trips", timeout.NewWithContext(VehicleTripsHandler(deps), 15*time.Second))
	v1.Get("/vehicles/:id/events", timeout.NewWithContext(VehicleEventsHandler(deps), 15*time.Second))

	v1.Post("/drivers", auth, timeout.NewWithContext(CreateDriverHandler(deps), 15*time.Second))
	v1.Get("/drivers/:id", timeout.NewWithContext(GetDriverHandler(deps), 15*time.Second))
	v1.Put("/drivers/:id", auth, timeout.NewWithContext(UpdateDriverHandler(deps), 15*time.Second))
	v1.Post("/drivers/:id/deactivate", auth, timeout.NewWithContext(DeactivateDriverHandler(deps), 15*time.Second))

	v1.Post("/trips", auth, timeout.NewWithContext(StartTripHandler(deps), 15*time.Second))
	v1.Get("/trips/:id", timeout.NewWithContext(GetTripHandler(deps), 15*time.Second))
	v1.Post("/trips/:id/end", auth, timeout.NewWithContext(EndTripHandler(deps), 15*time.Second))
	v1.Get("/trips/:id/summary", timeout.NewWithContext(TripSummaryHandler(deps), 15*time.Second))
	v1.Get("/trips/:id/stops", timeout.NewWithContext(TripStopsHandler(deps), 15*time.Second))

	v1.Post("/geofences", auth, timeout.NewWithContext(CreateGeofenceHandler(deps), 15*time.Second))
	v1.Get("/geofences", timeout.NewWithContext(ListGeofencesHandler(deps), 15*time.Second))
	v1.Get("/geofences/:id", timeout.NewWithContext(GetGeofenceHandler(deps), 15*time.Second))
	v1.Put("/geofences/:id", auth, timeout.NewWithContext(UpdateGeofenceHandler(deps), 15*time.Second))

	v1.Post("/events", auth, timeout.NewWithContext(RecordEventHandler(deps), 15*time.Second))
	v1.Get("/events", timeout.NewWithContext(ListEventsHandler(deps), 15*time.Second))
	v1.Get("/events/:id/verify", timeout.NewWithContext(VerifyEventHandler(deps), 15*time.Second))

	v1.Get("/safety/report", timeout.NewWithContext(SafetyReportHandler(deps), 15*time.Second))
	v1.Get("/fleet/status", timeout.NewWithContext(FleetStatsHandler(deps), 15*time.Second))

	// Legacy alias kept for early dashboard builds; scheduled for removal.
	v1.Get("/safety/index",
		DeprecationMiddleware("2026-12-31", "/v1/safety/report"),
		timeout.NewWithContext(SafetyReportHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
