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

	"go.temporal.io/sdk/client"

	natsadapter "github.com/dkarolys/fleetpulse/internal/adapters/nats"
	"github.com/dkarolys/fleetpulse/internal/adapters/postgres"
	"github.com/dkarolys/fleetpulse/internal/core/domain"
	"github.com/dkarolys/fleetpulse/internal/core/usecases"
	"github.com/dkarolys/fleetpulse/internal/pkg/config"
	"github.com/dkarolys/fleetpulse/internal/pkg/logging"
	"github.com/dkarolys/fleetpulse/internal/pkg/metrics"
	"github.com/dkarolys/fleetpulse/internal/workflows"
)

// The sentinel consumes the position stream, runs every sample through
// the geofence evaluator, and kicks off the escalation workflow when a
// critical SOS arrives.
func main() {
	cfg, err := config.Load("fleetpulse-sentinel")
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
		log.Fatalf("nats publisher: %v", err)
	}
	defer publisher.Close()

	subscriber, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer subscriber.Close()

	// Temporal is optional: without it SOS events are still durable in
	// the event log, they just do not auto-escalate.
	var temporalClient client.Client
	if tc, err := client.Dial(client.Options{HostPort: cfg.Temporal.HostPort}); err != nil {
		slog.Warn("temporal unavailable, SOS auto-escalation disabled", "error", err)
	} else {
		temporalClient = tc
		defer tc.Close()
	}

	geofenceRepo := postgres.NewGeofenceRepo(db)
	eventRepo := postgres.NewEventRepo(db)

	geofenceSvc := usecases.NewGeofenceService(geofenceRepo, eventRepo, publisher)

	// The tracker already persists samples before publishing; the
	// sentinel only evaluates them.
	err = subscriber.SubscribePositions(ctx, func(ctx context.Context, sample *domain.PositionSample) error {
		start := time.Now()
		event, err := geofenceSvc.Evaluate(ctx, sample)
		metrics.GeofenceEvalDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			return fmt.Errorf("evaluate: %w", err)
		}
		if event != nil {
			metrics.GeofenceViolations.WithLabelValues(string(event.Severity)).Inc()
			slog.Info("geofence violation",
				"vehicle_id", event.VehicleID,
				"geofence_id", event.GeofenceID,
				"severity", event.Severity)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe positions: %v", err)
	}

	err = subscriber.SubscribeSecurityEvents(ctx, func(ctx context.Context, event *domain.SecurityEvent) error {
		if event.Type != domain.EventSOS || event.Severity != domain.SeverityCritical {
			return nil
		}
		if temporalClient == nil {
			slog.Warn("critical SOS received but escalation is disabled", "event_id", event.ID)
			return nil
		}

		input := workflows.EscalationInput{
			EventID:   event.ID,
			VehicleID: event.VehicleID,
		}
		if event.Location != nil {
			input.Lat = event.Location.Lat
			input.Lng = event.Location.Lng
		}

		_, err := temporalClient.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:        "sos-escalation-" + event.ID,
			TaskQueue: cfg.Temporal.TaskQueue,
		}, workflows.EscalationWorkflow, input)
		if err != nil {
			return fmt.Errorf("start escalation workflow: %w", err)
		}
		slog.Info("escalation workflow started", "event_id", event.ID)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe events: %v", err)
	}

	slog.Info("sentinel started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received", "signal", sig.String())
	cancel()
	// Give in-flight handlers time to finish
	time.Sleep(2 * time.Second)
}
