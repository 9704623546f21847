package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
)

// PositionRepo implements ports.PositionRepository. The trip_positions
// table is append-only; samples are never updated or deleted.
type PositionRepo struct {
	db *DB
}

func NewPositionRepo(db *DB) *PositionRepo {
	return &PositionRepo{db: db}
}

func (r *PositionRepo) Append(ctx context.Context, s *domain.PositionSample) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO trip_positions (captured_at, trip_id, vehicle_id, location, speed_kmh)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6)
	`, s.CapturedAt, nilIfEmpty(s.TripID), s.VehicleID,
		s.Location.Lng, s.Location.Lat, s.SpeedKmh)
	return err
}

// AppendBatch inserts many samples using pgx.Batch. Used by the seeder
// and by the tracker when flushing a buffered window.
func (r *PositionRepo) AppendBatch(ctx context.Context, samples []domain.PositionSample) error {
	batch := &pgx.Batch{}
	for _, s := range samples {
		batch.Queue(`
			INSERT INTO trip_positions (captured_at, trip_id, vehicle_id, location, speed_kmh)
			VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6)
		`, s.CapturedAt, nilIfEmpty(s.TripID), s.VehicleID,
			s.Location.Lng, s.Location.Lat, s.SpeedKmh)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range samples {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// Samples returns one trip's full sample log ordered oldest first. Every
// call builds a fresh slice; analytics passes over it never see later
// appends.
func (r *PositionRepo) Samples(ctx context.Context, tripID string) ([]domain.PositionSample, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT captured_at, COALESCE(trip_id::text, ''), vehicle_id,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lng,
		       speed_kmh
		FROM trip_positions
		WHERE trip_id = $1
		ORDER BY captured_at ASC
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []domain.PositionSample
	for rows.Next() {
		var s domain.PositionSample
		if err := rows.Scan(
			&s.CapturedAt, &s.TripID, &s.VehicleID,
			&s.Location.Lat, &s.Location.Lng, &s.SpeedKmh,
		); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// LatestByCompany returns the most recent sample per vehicle across a
// company's fleet. Feeds the live map view.
func (r *PositionRepo) LatestByCompany(ctx context.Context, companyID string) ([]domain.PositionSample, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT DISTINCT ON (p.vehicle_id)
			p.captured_at, COALESCE(p.trip_id::text, ''), p.vehicle_id,
			ST_Y(p.location::geometry) as lat,
			ST_X(p.location::geometry) as lng,
			p.speed_kmh
		FROM trip_positions p
		JOIN vehicles v ON v.id = p.vehicle_id
		WHERE v.company_id = $1
		ORDER BY p.vehicle_id, p.captured_at DESC
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []domain.PositionSample
	for rows.Next() {
		var s domain.PositionSample
		if err := rows.Scan(
			&s.CapturedAt, &s.TripID, &s.VehicleID,
			&s.Location.Lat, &s.Location.Lng, &s.SpeedKmh,
		); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
