// Package sim provides a simulated GPS locator for development and
// load testing. Each vehicle random-walks from a seed point at a
// plausible urban speed profile.
package sim

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
	"github.com/dkarolys/fleetpulse/internal/core/ports"
)

// Locator implements ports.Locator with a per-vehicle random walk.
type Locator struct {
	origin      domain.GeoPoint
	failureRate float64 // probability a fix times out

	mu    sync.Mutex
	state map[string]*vehicleState
	rng   *rand.Rand
}

type vehicleState struct {
	pos      domain.GeoPoint
	speedKmh float64
	heading  float64 // radians
}

// NewLocator creates a simulator seeded at origin. failureRate in
// [0,1) injects transient timeouts to exercise the retry path.
func NewLocator(origin domain.GeoPoint, failureRate float64) *Locator {
	return &Locator{
		origin:      origin,
		failureRate: failureRate,
		state:       make(map[string]*vehicleState),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Fix returns the next simulated sample for a vehicle.
func (l *Locator) Fix(ctx context.Context, vehicleID string) (*domain.PositionSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rng.Float64() < l.failureRate {
		return nil, ports.ErrLocatorTimeout
	}

	st, ok := l.state[vehicleID]
	if !ok {
		st = &vehicleState{
			pos:      l.origin,
			speedKmh: 20 + l.rng.Float64()*30,
			heading:  l.rng.Float64() * 2 * math.Pi,
		}
		l.state[vehicleID] = st
	}

	l.step(st)

	return &domain.PositionSample{
		VehicleID:  vehicleID,
		Location:   st.pos,
		SpeedKmh:   st.speedKmh,
		CapturedAt: time.Now().UTC(),
	}, nil
}

// step advances one tick: drift the heading, occasionally stop at a
// light, and move roughly 5 seconds worth of travel.
func (l *Locator) step(st *vehicleState) {
	// One in twelve ticks the vehicle idles at zero speed.
	if l.rng.Float64() < 1.0/12 {
		st.speedKmh = 0
		return
	}
	if st.speedKmh == 0 {
		st.speedKmh = 15 + l.rng.Float64()*25
	} else {
		st.speedKmh += l.rng.Float64()*10 - 5
		if st.speedKmh < 5 {
			st.speedKmh = 5
		}
		if st.speedKmh > 90 {
			st.speedKmh = 90
		}
	}

	st.heading += (l.rng.Float64() - 0.5) * 0.6

	// Distance for a 5 second tick, in degrees of latitude.
	distKm := st.speedKmh * 5 / 3600
	dLat := distKm / 111.0
	dLng := distKm / (111.0 * math.Cos(st.pos.Lat*math.Pi/180))

	st.pos.Lat += dLat * math.Cos(st.heading)
	st.pos.Lng += dLng * math.Sin(st.heading)
}
