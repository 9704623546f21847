package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/dkarolys/fleetpulse/internal/adapters/http"
	natsadapter "github.com/dkarolys/fleetpulse/internal/adapters/nats"
	"github.com/dkarolys/fleetpulse/internal/adapters/postgres"
	"github.com/dkarolys/fleetpulse/internal/adapters/valkey"
	"github.com/dkarolys/fleetpulse/internal/core/usecases"
	"github.com/dkarolys/fleetpulse/internal/pkg/config"
	"github.com/dkarolys/fleetpulse/internal/pkg/logging"
	"github.com/dkarolys/fleetpulse/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("fleetpulse-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(ctx)
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
	}

	// NATS
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer publisher.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Repos
	companyRepo := postgres.NewCompanyRepo(db)
	driverRepo := postgres.NewDriverRepo(db)
	vehicleRepo := postgres.NewVehicleRepo(db)
	tripRepo := postgres.NewTripRepo(db)
	positionRepo := postgres.NewPositionRepo(db)
	eventRepo := postgres.NewEventRepo(db)
	geofenceRepo := postgres.NewGeofenceRepo(db)

	// Use cases
	companySvc := usecases.NewCompanyService(companyRepo)
	driverSvc := usecases.NewDriverService(driverRepo)
	vehicleSvc := usecases.NewVehicleService(vehicleRepo, positionRepo, cache)
	tripSvc := usecases.NewTripService(tripRepo, positionRepo)
	geofenceSvc := usecases.NewGeofenceService(geofenceRepo, eventRepo, publisher)
	safetySvc := usecases.NewSafetyService(eventRepo, vehicleRepo, publisher, nil)

	deps := &http.Dependencies{
		Companies: companySvc,
		Drivers:   driverSvc,
		Vehicles:  vehicleSvc,
		Trips:     tripSvc,
		Geofences: geofenceSvc,
		Safety:    safetySvc,
		NATS:      natsConn,
		DB:        db,
		Cache:     cache,
		APIToken:  cfg.Server.APIToken,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "FleetPulse API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.fleetpulse.io",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
