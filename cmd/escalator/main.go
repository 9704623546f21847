package main

import (
	"context"
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/dkarolys/fleetpulse/internal/adapters/nats"
	"github.com/dkarolys/fleetpulse/internal/adapters/postgres"
	"github.com/dkarolys/fleetpulse/internal/core/usecases"
	"github.com/dkarolys/fleetpulse/internal/pkg/config"
	"github.com/dkarolys/fleetpulse/internal/workflows"
)

func main() {
	cfg, err := config.Load("fleetpulse-escalator")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

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

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	eventRepo := postgres.NewEventRepo(db)
	vehicleRepo := postgres.NewVehicleRepo(db)
	driverRepo := postgres.NewDriverRepo(db)

	safetySvc := usecases.NewSafetyService(eventRepo, vehicleRepo, publisher, nil)

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.EscalationWorkflow)
	w.RegisterActivity(&workflows.EscalationActivities{
		Safety:    safetySvc,
		Vehicles:  vehicleRepo,
		Drivers:   driverRepo,
		Publisher: publisher,
	})

	log.Println("escalator worker started")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
