package analytics

import (
	"math"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
)

// severityWeight is the penalty contributed by one event of the given
// severity.
func severityWeight(s domain.Severity) float64 {
	switch s {
	case domain.SeverityCritical:
		return 5
	case domain.SeverityHigh:
		return 2
	case domain.SeverityMedium:
		return 0.5
	default:
		return 0
	}
}

// SafetyIndex reduces a window of severity-tagged security events and
// the active-vehicle count to a 0-100 score.
//
// index = round(100 - penalty/max(activeVehicles, 1)), clamped at 0.
// With zero active vehicles the divisor falls back to 1 so an idle
// fleet reports a number instead of NaN. No upper clamp is needed
// since the penalty is never negative.
func SafetyIndex(events []domain.SecurityEvent, activeVehicles int) int {
	var penalty float64
	for _, e := range events {
		penalty += severityWeight(e.Severity)
	}

	divisor := float64(activeVehicles)
	if divisor < 1 {
		divisor = 1
	}

	index := 100 - penalty/divisor
	if index < 0 {
		index = 0
	}
	return int(math.Round(index))
}
