package http

import (
	"github.com/nats-io/nats.go"

	"github.com/dkarolys/fleetpulse/internal/adapters/postgres"
	"github.com/dkarolys/fleetpulse/internal/adapters/valkey"
	"github.com/dkarolys/fleetpulse/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Companies *usecases.CompanyService
	Drivers   *usecases.DriverService
	Vehicles  *usecases.VehicleService
	Trips     *usecases.TripService
	Geofences *usecases.GeofenceService
	Safety    *usecases.SafetyService
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache

	// APIToken guards mutating endpoints; empty disables the check.
	APIToken string
}
