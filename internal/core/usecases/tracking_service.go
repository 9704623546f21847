package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
	"github.com/dkarolys/fleetpulse/internal/core/ports"
)

// TrackingConfig tunes the sampling loop.
type TrackingConfig struct {
	SampleInterval time.Duration // cadence between fixes
	MaxRetries     int           // attempts per fix before giving up
	RetryBackoff   time.Duration // base backoff, doubled per attempt
}

// DefaultTrackingConfig matches the device polling cadence of the
// dashboard clients.
func DefaultTrackingConfig() TrackingConfig {
	return TrackingConfig{
		SampleInterval: 5 * time.Second,
		MaxRetries:     3,
		RetryBackoff:   500 * time.Millisecond,
	}
}

// TrackingService runs the per-vehicle GPS sampling loop: request a fix
// from the locator at a fixed cadence, retry timeouts with bounded
// backoff, persist and publish each sample. Cancelling the context
// stops the loop and abandons any pending retry sleep, so no stale
// callback can fire after a tracking session ends.
type TrackingService struct {
	locator   ports.Locator
	positions ports.PositionRepository
	publisher ports.EventPublisher
	cfg       TrackingConfig
}

// NewTrackingService creates a new TrackingService.
func NewTrackingService(
	locator ports.Locator,
	positions ports.PositionRepository,
	publisher ports.EventPublisher,
	cfg TrackingConfig,
) *TrackingService {
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = DefaultTrackingConfig().SampleInterval
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultTrackingConfig().MaxRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultTrackingConfig().RetryBackoff
	}
	return &TrackingService{
		locator:   locator,
		positions: positions,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Track samples one vehicle until the context is cancelled or a fatal
// locator error occurs. Permission denial stops the session
// immediately; exhausted timeout retries record a zero-speed sample at
// the last known location and the loop carries on at the next tick.
func (s *TrackingService) Track(ctx context.Context, tripID, vehicleID string) error {
	ticker := time.NewTicker(s.cfg.SampleInterval)
	defer ticker.Stop()

	var lastKnown *domain.GeoPoint

	for {
		sample, err := s.sampleOnce(ctx, vehicleID)
		switch {
		case errors.Is(err, ports.ErrPermissionDenied):
			return fmt.Errorf("tracking %s: %w", vehicleID, err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return ctx.Err()
		case err != nil:
			// Retries exhausted: report zero speed rather than dropping
			// the tick, so the trip log shows the gap explicitly.
			slog.Warn("gps fix failed, recording zero speed",
				"vehicle_id", vehicleID, "error", err)
			if lastKnown != nil {
				sample = &domain.PositionSample{
					VehicleID:  vehicleID,
					Location:   *lastKnown,
					SpeedKmh:   0,
					CapturedAt: time.Now().UTC(),
				}
			}
		}

		if sample != nil {
			sample.TripID = tripID
			sample.VehicleID = vehicleID
			lastKnown = &sample.Location

			if err := s.positions.Append(ctx, sample); err != nil {
				slog.Error("append sample", "vehicle_id", vehicleID, "error", err)
			} else if s.publisher != nil {
				_ = s.publisher.PublishPosition(ctx, sample)
			}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// sampleOnce requests a single fix, retrying transient timeouts up to
// the configured cap with doubling backoff.
func (s *TrackingService) sampleOnce(ctx context.Context, vehicleID string) (*domain.PositionSample, error) {
	backoff := s.cfg.RetryBackoff

	var lastErr error
	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				// Abandoned mid-retry: the timer is stopped so nothing
				// fires after the session ends.
				timer.Stop()
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		sample, err := s.locator.Fix(ctx, vehicleID)
		if err == nil {
			return sample, nil
		}
		if errors.Is(err, ports.ErrPermissionDenied) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	return nil, fmt.Errorf("gps fix failed after %d attempts: %w", s.cfg.MaxRetries, lastErr)
}
