package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	natsadapter "github.com/dkarolys/fleetpulse/internal/adapters/nats"
	"github.com/dkarolys/fleetpulse/internal/adapters/postgres"
	"github.com/dkarolys/fleetpulse/internal/adapters/sim"
	"github.com/dkarolys/fleetpulse/internal/core/domain"
	"github.com/dkarolys/fleetpulse/internal/core/usecases"
	"github.com/dkarolys/fleetpulse/internal/pkg/config"
	"github.com/dkarolys/fleetpulse/internal/pkg/logging"
)

// The tracker runs one GPS sampling loop per active vehicle of a
// company and streams samples to Postgres and NATS. With no real
// device gateway configured it falls back to the simulator.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: tracker <company-slug>")
	}
	slug := os.Args[1]

	cfg, err := config.Load("fleetpulse-tracker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer publisher.Close()

	companyRepo := postgres.NewCompanyRepo(db)
	vehicleRepo := postgres.NewVehicleRepo(db)
	tripRepo := postgres.NewTripRepo(db)
	positionRepo := postgres.NewPositionRepo(db)

	tripSvc := usecases.NewTripService(tripRepo, positionRepo)

	company, err := companyRepo.GetBySlug(ctx, slug)
	if err != nil {
		log.Fatalf("company %q: %v", slug, err)
	}

	vehicles, err := vehicleRepo.ListByCompany(ctx, company.ID)
	if err != nil {
		log.Fatalf("list vehicles: %v", err)
	}

	// Seed the simulator in central Bilbao; a real deployment swaps in
	// the device gateway locator here.
	locator := sim.NewLocator(domain.GeoPoint{Lat: 43.263, Lng: -2.935}, 0.05)

	trackingSvc := usecases.NewTrackingService(locator, positionRepo, publisher, usecases.TrackingConfig{
		SampleInterval: time.Duration(cfg.Tracker.SampleIntervalMs) * time.Millisecond,
		MaxRetries:     cfg.Tracker.MaxRetries,
		RetryBackoff:   time.Duration(cfg.Tracker.RetryBackoffMs) * time.Millisecond,
	})

	var wg sync.WaitGroup
	var tripIDs []string

	for _, v := range vehicles {
		if !v.Active {
			continue
		}

		trip, err := tripSvc.Start(ctx, v.ID, v.DriverID)
		if err != nil {
			slog.Error("start trip", "vehicle_id", v.ID, "error", err)
			continue
		}
		tripIDs = append(tripIDs, trip.ID)

		wg.Add(1)
		go func(tripID, vehicleID string) {
			defer wg.Done()
			if err := trackingSvc.Track(ctx, tripID, vehicleID); err != nil && ctx.Err() == nil {
				slog.Error("tracking stopped", "vehicle_id", vehicleID, "error", err)
			}
		}(trip.ID, v.ID)
	}

	slog.Info("tracker started", "company", slug, "vehicles", len(tripIDs))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, closing trips", "signal", sig.String())
	cancel()
	wg.Wait()

	endCtx, endCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer endCancel()
	for _, id := range tripIDs {
		if err := tripSvc.End(endCtx, id, domain.TripCompleted); err != nil {
			slog.Error("end trip", "trip_id", id, "error", err)
		}
	}

	slog.Info("tracker stopped")
}
