package analytics

import (
	"github.com/dkarolys/fleetpulse/internal/core/domain"
)

// Summarize reduces one trip's ordered sample sequence to its summary
// statistics and detected stops. An empty trip (no GPS fixes) still
// yields a usable summary: both speeds default to zero rather than
// failing on the empty reduction.
func Summarize(tripID string, samples []domain.PositionSample) domain.TripSummary {
	summary := domain.TripSummary{
		TripID: tripID,
		Stops:  DetectStops(samples),
	}

	var sum float64
	for _, s := range samples {
		if !s.Location.Valid() {
			continue
		}
		if s.SpeedKmh > summary.MaxSpeedKmh {
			summary.MaxSpeedKmh = s.SpeedKmh
		}
		sum += s.SpeedKmh
		summary.SampleCount++
	}

	if summary.SampleCount > 0 {
		summary.AvgSpeedKmh = sum / float64(summary.SampleCount)
	}

	return summary
}
