package domain_test

import (
	"testing"
	"time"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
)

func sealedEvent() *domain.SecurityEvent {
	e := &domain.SecurityEvent{
		ID:         "ev-1",
		Type:       domain.EventGeofenceViolation,
		Severity:   domain.SeverityHigh,
		VehicleID:  "veh-1",
		GeofenceID: "gf-1",
		Location:   &domain.GeoPoint{Lat: 43.263012, Lng: -2.934985},
		Timestamp:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	e.Seal()
	return e
}

func TestSeal_RoundTrip(t *testing.T) {
	e := sealedEvent()
	if e.IntegrityHash == "" {
		t.Fatal("seal left hash empty")
	}
	if len(e.IntegrityHash) != 64 {
		t.Errorf("expected hex sha256 (64 chars), got %d", len(e.IntegrityHash))
	}
	if !e.VerifySeal() {
		t.Error("untouched event must verify")
	}
}

func TestSeal_Deterministic(t *testing.T) {
	a, b := sealedEvent(), sealedEvent()
	if a.IntegrityHash != b.IntegrityHash {
		t.Error("identical events must seal to identical hashes")
	}
}

func TestSeal_DetectsFieldMutation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *domain.SecurityEvent)
	}{
		{"severity", func(e *domain.SecurityEvent) { e.Severity = domain.SeverityLow }},
		{"vehicle", func(e *domain.SecurityEvent) { e.VehicleID = "veh-2" }},
		{"geofence", func(e *domain.SecurityEvent) { e.GeofenceID = "gf-2" }},
		{"timestamp", func(e *domain.SecurityEvent) { e.Timestamp = e.Timestamp.Add(time.Millisecond) }},
		{"location", func(e *domain.SecurityEvent) { e.Location = &domain.GeoPoint{Lat: 0, Lng: 0} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := sealedEvent()
			tt.mutate(e)
			if e.VerifySeal() {
				t.Errorf("mutation of %s must break the seal", tt.name)
			}
		})
	}
}

func TestSeal_NilLocation(t *testing.T) {
	e := &domain.SecurityEvent{
		ID:        "ev-2",
		Type:      domain.EventSOS,
		Severity:  domain.SeverityCritical,
		VehicleID: "veh-1",
	}
	e.Seal()
	if e.Timestamp.IsZero() {
		t.Error("seal must stamp a missing timestamp")
	}
	if !e.VerifySeal() {
		t.Error("event without location must still seal and verify")
	}
}

func TestVerifySeal_EmptyHashFails(t *testing.T) {
	e := &domain.SecurityEvent{ID: "ev-3", Type: domain.EventSOS}
	if e.VerifySeal() {
		t.Error("unsealed event must never verify")
	}
}
