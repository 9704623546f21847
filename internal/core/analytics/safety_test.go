package analytics

import (
	"testing"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
)

func event(sev domain.Severity) domain.SecurityEvent {
	return domain.SecurityEvent{Type: domain.EventSOS, Severity: sev}
}

func TestSafetyIndex(t *testing.T) {
	tests := []struct {
		name     string
		events   []domain.SecurityEvent
		vehicles int
		want     int
	}{
		{"no events", nil, 5, 100},
		{"one critical one vehicle", []domain.SecurityEvent{event(domain.SeverityCritical)}, 1, 95},
		{"one high two vehicles", []domain.SecurityEvent{event(domain.SeverityHigh)}, 2, 99},
		{"medium rounds to nearest", []domain.SecurityEvent{event(domain.SeverityMedium)}, 1, 100}, // 99.5 rounds up
		{"low is free", []domain.SecurityEvent{event(domain.SeverityLow)}, 1, 100},
		{"mixed", []domain.SecurityEvent{
			event(domain.SeverityCritical),
			event(domain.SeverityHigh),
			event(domain.SeverityMedium),
		}, 1, 93}, // 100 - 7.5 = 92.5 rounds to 93
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafetyIndex(tt.events, tt.vehicles); got != tt.want {
				t.Errorf("SafetyIndex = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSafetyIndex_ZeroVehiclesIsNotNaN(t *testing.T) {
	events := []domain.SecurityEvent{event(domain.SeverityCritical)}
	got := SafetyIndex(events, 0)
	// Degenerate case divides by 1 instead of 0.
	if got != 95 {
		t.Errorf("expected 95 with zero vehicles, got %d", got)
	}
}

func TestSafetyIndex_ClampedAtZero(t *testing.T) {
	var events []domain.SecurityEvent
	for i := 0; i < 30; i++ {
		events = append(events, event(domain.SeverityCritical))
	}
	if got := SafetyIndex(events, 1); got != 0 {
		t.Errorf("heavily penalized fleet must clamp to 0, got %d", got)
	}
}
