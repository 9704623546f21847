package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/dkarolys/fleetpulse/internal/core/analytics"
	"github.com/dkarolys/fleetpulse/internal/core/domain"
	"github.com/dkarolys/fleetpulse/internal/core/ports"
)

// DefaultReportWindow is the trailing window for the fleet safety report.
const DefaultReportWindow = 7 * 24 * time.Hour

// SafetyService records sealed security events and computes the fleet
// safety report.
type SafetyService struct {
	events    ports.SecurityEventRepository
	vehicles  ports.VehicleRepository
	publisher ports.EventPublisher
	notifier  ports.NotificationService
}

// NewSafetyService creates a new SafetyService.
func NewSafetyService(
	events ports.SecurityEventRepository,
	vehicles ports.VehicleRepository,
	publisher ports.EventPublisher,
	notifier ports.NotificationService,
) *SafetyService {
	return &SafetyService{
		events:    events,
		vehicles:  vehicles,
		publisher: publisher,
		notifier:  notifier,
	}
}

// RecordEvent seals and appends a security event, then publishes it for
// realtime consumers.
func (s *SafetyService) RecordEvent(ctx context.Context, event *domain.SecurityEvent) error {
	switch event.Type {
	case domain.EventSOS, domain.EventGeofenceViolation, domain.EventFatigueAlert:
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
	switch event.Severity {
	case domain.SeverityCritical, domain.SeverityHigh, domain.SeverityMedium, domain.SeverityLow:
	default:
		return fmt.Errorf("unknown severity %q", event.Severity)
	}

	event.Seal()

	if err := s.events.Append(ctx, event); err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	if s.publisher != nil {
		_ = s.publisher.PublishSecurityEvent(ctx, event)
	}
	return nil
}

// VerifyEvent recomputes the integrity seal of a stored event and
// reports whether it still matches.
func (s *SafetyService) VerifyEvent(ctx context.Context, id string) (bool, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get event: %w", err)
	}
	return event.VerifySeal(), nil
}

// EventsWindow returns the events inside a reporting window.
func (s *SafetyService) EventsWindow(ctx context.Context, from, to time.Time) ([]domain.SecurityEvent, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("window end must be after start")
	}
	return s.events.ListWindow(ctx, from, to)
}

// EventsByVehicle returns a vehicle's recent events, newest first.
func (s *SafetyService) EventsByVehicle(ctx context.Context, vehicleID string, limit int) ([]domain.SecurityEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.events.ListByVehicle(ctx, vehicleID, limit)
}

// Report computes the safety report for the trailing window ending now.
// The event list and vehicle count are read once per call; the index
// itself is a pure reduction over that snapshot.
func (s *SafetyService) Report(ctx context.Context, window time.Duration) (*domain.SafetyReport, error) {
	if window <= 0 {
		window = DefaultReportWindow
	}
	now := time.Now().UTC()
	from := now.Add(-window)

	events, err := s.events.ListWindow(ctx, from, now)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	active, err := s.vehicles.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("count vehicles: %w", err)
	}

	critical24h := 0
	cutoff := now.Add(-24 * time.Hour)
	for _, e := range events {
		if e.Severity == domain.SeverityCritical && !e.Timestamp.Before(cutoff) {
			critical24h++
		}
	}

	return &domain.SafetyReport{
		Index:          analytics.SafetyIndex(events, active),
		WindowStart:    from,
		WindowEnd:      now,
		EventCount:     len(events),
		Critical24h:    critical24h,
		ActiveVehicles: active,
	}, nil
}
