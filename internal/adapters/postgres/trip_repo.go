package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
)

// TripRepo implements ports.TripRepository.
type TripRepo struct {
	db *DB
}

func NewTripRepo(db *DB) *TripRepo {
	return &TripRepo{db: db}
}

func (r *TripRepo) Create(ctx context.Context, trip *domain.Trip) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO trips (vehicle_id, driver_id, status, started_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, trip.VehicleID, nilIfEmpty(trip.DriverID), trip.Status, trip.StartedAt).
		Scan(&trip.ID, &trip.CreatedAt)
}

func (r *TripRepo) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	tr := &domain.Trip{}
	var driverID sql.NullString
	var endedAt sql.NullTime
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, vehicle_id, driver_id, status, started_at, ended_at, created_at
		FROM trips WHERE id = $1
	`, id).Scan(&tr.ID, &tr.VehicleID, &driverID, &tr.Status,
		&tr.StartedAt, &endedAt, &tr.CreatedAt)
	if err != nil {
		return nil, err
	}
	tr.DriverID = driverID.String
	if endedAt.Valid {
		tr.EndedAt = &endedAt.Time
	}
	return tr, nil
}

func (r *TripRepo) ListByVehicle(ctx context.Context, vehicleID string, limit int) ([]domain.Trip, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, vehicle_id, COALESCE(driver_id::text, ''), status, started_at, ended_at, created_at
		FROM trips
		WHERE vehicle_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, vehicleID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		var tr domain.Trip
		var endedAt sql.NullTime
		if err := rows.Scan(&tr.ID, &tr.VehicleID, &tr.DriverID, &tr.Status,
			&tr.StartedAt, &endedAt, &tr.CreatedAt); err != nil {
			return nil, err
		}
		if endedAt.Valid {
			tr.EndedAt = &endedAt.Time
		}
		trips = append(trips, tr)
	}
	return trips, rows.Err()
}

// End marks a trip completed or aborted. Only in-progress trips are
// affected; ending an already-ended trip is a no-op at this layer.
func (r *TripRepo) End(ctx context.Context, id string, status domain.TripStatus, endedAt time.Time) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE trips SET status = $2, ended_at = $3
		WHERE id = $1 AND status = 'in_progress'
	`, id, status, endedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("trip %s is not in progress", id)
	}
	return nil
}
