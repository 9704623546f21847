package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
)

// EventRepo implements ports.SecurityEventRepository. The table is
// append-only: no UPDATE or DELETE paths exist, which is what makes the
// integrity seal meaningful.
type EventRepo struct {
	db *DB
}

func NewEventRepo(db *DB) *EventRepo {
	return &EventRepo{db: db}
}

func (r *EventRepo) Append(ctx context.Context, e *domain.SecurityEvent) error {
	var lat, lng any
	if e.Location != nil {
		lat, lng = e.Location.Lat, e.Location.Lng
	}
	// The id arrives pre-assigned: it is covered by the integrity seal,
	// so the DB must not generate it.
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO security_events
			(id, event_type, severity, vehicle_id, geofence_id, lat, lng,
			 description, occurred_at, integrity_hash, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, e.ID, e.Type, e.Severity, nilIfEmpty(e.VehicleID), nilIfEmpty(e.GeofenceID),
		lat, lng, e.Description, e.Timestamp, e.IntegrityHash, e.Metadata)
	return err
}

func (r *EventRepo) GetByID(ctx context.Context, id string) (*domain.SecurityEvent, error) {
	e := &domain.SecurityEvent{}
	var lat, lng sql.NullFloat64
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, event_type, severity, COALESCE(vehicle_id::text, ''),
		       COALESCE(geofence_id::text, ''), lat, lng,
		       COALESCE(description, ''), occurred_at, integrity_hash,
		       COALESCE(metadata, '{}')
		FROM security_events WHERE id = $1
	`, id).Scan(&e.ID, &e.Type, &e.Severity, &e.VehicleID, &e.GeofenceID,
		&lat, &lng, &e.Description, &e.Timestamp, &e.IntegrityHash, &e.Metadata)
	if err != nil {
		return nil, err
	}
	if lat.Valid && lng.Valid {
		e.Location = &domain.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
	}
	return e, nil
}

func (r *EventRepo) ListWindow(ctx context.Context, from, to time.Time) ([]domain.SecurityEvent, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, event_type, severity, COALESCE(vehicle_id::text, ''),
		       COALESCE(geofence_id::text, ''), lat, lng,
		       COALESCE(description, ''), occurred_at, integrity_hash,
		       COALESCE(metadata, '{}')
		FROM security_events
		WHERE occurred_at >= $1 AND occurred_at < $2
		ORDER BY occurred_at DESC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *EventRepo) ListByVehicle(ctx context.Context, vehicleID string, limit int) ([]domain.SecurityEvent, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, event_type, severity, COALESCE(vehicle_id::text, ''),
		       COALESCE(geofence_id::text, ''), lat, lng,
		       COALESCE(description, ''), occurred_at, integrity_hash,
		       COALESCE(metadata, '{}')
		FROM security_events
		WHERE vehicle_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`, vehicleID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

type eventRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEvents(rows eventRows) ([]domain.SecurityEvent, error) {
	var events []domain.SecurityEvent
	for rows.Next() {
		var e domain.SecurityEvent
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.Type, &e.Severity, &e.VehicleID, &e.GeofenceID,
			&lat, &lng, &e.Description, &e.Timestamp, &e.IntegrityHash, &e.Metadata); err != nil {
			return nil, err
		}
		if lat.Valid && lng.Valid {
			e.Location = &domain.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
