// Package analytics holds the pure trip and fleet analytics. Every
// function here is deterministic over its input snapshot and keeps no
// state across calls, so callers may invoke them repeatedly and
// concurrently as long as each call gets its own immutable slice.
package analytics

import (
	"time"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
)

// MinStopDuration is the threshold below which a zero-speed run is
// treated as brief idling (traffic lights, junctions) rather than a
// stop worth reporting.
const MinStopDuration = 120 * time.Second

// DetectStops scans one trip's ordered sample sequence and returns the
// closed stop intervals, in detection order.
//
// A stop opens at the first zero-speed sample and closes at the next
// sample with positive speed; its duration runs from the opening sample
// to the last zero-speed sample before the closure, since the vehicle
// was stationary only through that sample. Runs of MinStopDuration or
// shorter are discarded. A stop still open when the sequence ends is
// not emitted: its true end time is unknown until the trip resumes.
//
// Samples with non-finite coordinates are skipped; malformed input
// never aborts the analysis of a whole trip.
func DetectStops(samples []domain.PositionSample) []domain.StopInterval {
	var stops []domain.StopInterval

	var open *domain.PositionSample
	var lastZero time.Time

	for i := range samples {
		s := samples[i]
		if !s.Location.Valid() {
			continue
		}

		switch {
		case s.SpeedKmh == 0 && open == nil:
			open = &samples[i]
			lastZero = s.CapturedAt
		case s.SpeedKmh == 0:
			lastZero = s.CapturedAt
		case open != nil:
			d := lastZero.Sub(open.CapturedAt)
			if d > MinStopDuration {
				stops = append(stops, domain.StopInterval{
					Location:  open.Location,
					StartedAt: open.CapturedAt,
					Duration:  d,
				})
			}
			open = nil
		}
	}

	return stops
}
