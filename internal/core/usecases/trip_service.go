package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/dkarolys/fleetpulse/internal/core/analytics"
	"github.com/dkarolys/fleetpulse/internal/core/domain"
	"github.com/dkarolys/fleetpulse/internal/core/ports"
)

// TripService handles trip lookups and derived analytics.
type TripService struct {
	trips     ports.TripRepository
	positions ports.PositionRepository
}

// NewTripService creates a new TripService.
func NewTripService(trips ports.TripRepository, positions ports.PositionRepository) *TripService {
	return &TripService{trips: trips, positions: positions}
}

// GetByID returns a single trip.
func (s *TripService) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	return s.trips.GetByID(ctx, id)
}

// ListByVehicle returns recent trips for a vehicle.
func (s *TripService) ListByVehicle(ctx context.Context, vehicleID string, limit int) ([]domain.Trip, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.trips.ListByVehicle(ctx, vehicleID, limit)
}

// Start opens a new trip for a vehicle.
func (s *TripService) Start(ctx context.Context, vehicleID, driverID string) (*domain.Trip, error) {
	if vehicleID == "" {
		return nil, fmt.Errorf("vehicle id is required")
	}
	trip := &domain.Trip{
		VehicleID: vehicleID,
		DriverID:  driverID,
		Status:    domain.TripInProgress,
		StartedAt: time.Now().UTC(),
	}
	if err := s.trips.Create(ctx, trip); err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}
	return trip, nil
}

// End closes a trip.
func (s *TripService) End(ctx context.Context, id string, status domain.TripStatus) error {
	if status != domain.TripCompleted && status != domain.TripAborted {
		return fmt.Errorf("invalid end status %q", status)
	}
	return s.trips.End(ctx, id, status, time.Now().UTC())
}

// Summary recomputes the trip analytics from the sample log. The repo
// hands back a fresh snapshot of the ordered log, so a concurrent
// append during analysis cannot produce an inconsistent partial read.
// Results are not cached: recomputation is cheap relative to the fetch.
func (s *TripService) Summary(ctx context.Context, tripID string) (*domain.TripSummary, error) {
	samples, err := s.positions.Samples(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("fetch samples: %w", err)
	}
	summary := analytics.Summarize(tripID, samples)
	return &summary, nil
}

// Stops returns just the detected stop intervals for a trip.
func (s *TripService) Stops(ctx context.Context, tripID string) ([]domain.StopInterval, error) {
	samples, err := s.positions.Samples(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("fetch samples: %w", err)
	}
	return analytics.DetectStops(samples), nil
}
