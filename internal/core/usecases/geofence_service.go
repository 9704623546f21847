package usecases

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
	"github.com/dkarolys/fleetpulse/internal/core/ports"
	"github.com/dkarolys/fleetpulse/internal/pkg/geospatial"
)

// GeofenceService evaluates incoming position samples against the
// active geofence set and raises one violation per zone entry.
//
// The evaluator is an edge-triggered state machine with two states per
// vehicle, outside or inside a specific zone. Only the most recent
// containment is remembered: staying inside across many samples emits
// nothing, exiting clears the memory so a later re-entry triggers
// again. State lives in a map keyed by vehicle id so one vehicle's
// memory can never leak into another's.
type GeofenceService struct {
	fences    ports.GeofenceRepository
	events    ports.SecurityEventRepository
	publisher ports.EventPublisher

	mu     sync.Mutex
	inside map[string]string // vehicle id -> geofence id currently containing it
}

// NewGeofenceService creates a new GeofenceService.
func NewGeofenceService(
	fences ports.GeofenceRepository,
	events ports.SecurityEventRepository,
	publisher ports.EventPublisher,
) *GeofenceService {
	return &GeofenceService{
		fences:    fences,
		events:    events,
		publisher: publisher,
		inside:    make(map[string]string),
	}
}

// Create registers a new geofence zone.
func (s *GeofenceService) Create(ctx context.Context, fence *domain.Geofence) error {
	if fence.Name == "" {
		return fmt.Errorf("geofence name is required")
	}
	if len(fence.Polygon) < 3 {
		return fmt.Errorf("geofence polygon needs at least 3 vertices, got %d", len(fence.Polygon))
	}
	for _, v := range fence.Polygon {
		if !v.Valid() {
			return fmt.Errorf("geofence polygon has non-finite vertex")
		}
	}
	fence.Active = true
	return s.fences.Create(ctx, fence)
}

// Update replaces a geofence's mutable fields. The same vertex checks
// as Create apply.
func (s *GeofenceService) Update(ctx context.Context, fence *domain.Geofence) error {
	if fence.ID == "" {
		return fmt.Errorf("geofence id is required")
	}
	if fence.Name == "" {
		return fmt.Errorf("geofence name is required")
	}
	if len(fence.Polygon) < 3 {
		return fmt.Errorf("geofence polygon needs at least 3 vertices, got %d", len(fence.Polygon))
	}
	for _, v := range fence.Polygon {
		if !v.Valid() {
			return fmt.Errorf("geofence polygon has non-finite vertex")
		}
	}
	return s.fences.Update(ctx, fence)
}

// ListActive returns all active geofences.
func (s *GeofenceService) ListActive(ctx context.Context) ([]domain.Geofence, error) {
	return s.fences.ListActive(ctx)
}

// GetByID returns a single geofence.
func (s *GeofenceService) GetByID(ctx context.Context, id string) (*domain.Geofence, error) {
	return s.fences.GetByID(ctx, id)
}

// Evaluate runs one position sample through the containment check and
// returns the violation event if this sample entered a new zone. The
// event is sealed, appended to the event log, and published before it
// is returned; persistence failure aborts without updating the
// edge-trigger memory so the next sample retries the entry.
func (s *GeofenceService) Evaluate(ctx context.Context, sample *domain.PositionSample) (*domain.SecurityEvent, error) {
	if !sample.Location.Valid() {
		return nil, nil
	}

	fences, err := s.fences.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list geofences: %w", err)
	}

	matched := containing(sample.Location, fences)

	s.mu.Lock()
	remembered := s.inside[sample.VehicleID]
	s.mu.Unlock()

	if matched == nil {
		// Outside every zone: clear the memory so re-entry re-triggers.
		if remembered != "" {
			s.mu.Lock()
			delete(s.inside, sample.VehicleID)
			s.mu.Unlock()
		}
		return nil, nil
	}

	if matched.ID == remembered {
		// Still inside the same zone, nothing new to report.
		return nil, nil
	}

	event := &domain.SecurityEvent{
		Type:       domain.EventGeofenceViolation,
		Severity:   matched.EventSeverity(),
		VehicleID:  sample.VehicleID,
		GeofenceID: matched.ID,
		Location:   &sample.Location,
		Description: fmt.Sprintf("vehicle entered %s zone %q",
			matched.RiskLevel, matched.Name),
		Timestamp: sample.CapturedAt,
	}
	event.Seal()

	if err := s.events.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("append violation event: %w", err)
	}

	s.mu.Lock()
	s.inside[sample.VehicleID] = matched.ID
	s.mu.Unlock()

	if s.publisher != nil {
		// Best-effort; the event is already durable.
		_ = s.publisher.PublishSecurityEvent(ctx, event)
	}

	return event, nil
}

// containing returns the first active geofence containing the point.
func containing(p domain.GeoPoint, fences []domain.Geofence) *domain.Geofence {
	for i := range fences {
		f := &fences[i]
		if !f.Active {
			continue
		}
		if !geospatial.InBounds(p, geospatial.PolygonBounds(f.Polygon)) {
			continue
		}
		if geospatial.PointInPolygon(p, f.Polygon) {
			return f
		}
	}
	return nil
}
