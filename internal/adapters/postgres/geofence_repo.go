package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
)

// GeofenceRepo implements ports.GeofenceRepository. Polygons are stored
// as JSONB vertex lists; containment runs in the evaluator, not in SQL,
// so the DB never needs to reason about ring orientation.
type GeofenceRepo struct {
	db *DB
}

func NewGeofenceRepo(db *DB) *GeofenceRepo {
	return &GeofenceRepo{db: db}
}

func (r *GeofenceRepo) Create(ctx context.Context, f *domain.Geofence) error {
	polygon, err := json.Marshal(f.Polygon)
	if err != nil {
		return fmt.Errorf("marshal polygon: %w", err)
	}
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO geofences (company_id, name, risk_level, polygon, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, nilIfEmpty(f.CompanyID), f.Name, f.RiskLevel, polygon, f.Active).
		Scan(&f.ID, &f.CreatedAt)
}

func (r *GeofenceRepo) Update(ctx context.Context, f *domain.Geofence) error {
	polygon, err := json.Marshal(f.Polygon)
	if err != nil {
		return fmt.Errorf("marshal polygon: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		UPDATE geofences
		SET name = $2, risk_level = $3, polygon = $4, active = $5
		WHERE id = $1
	`, f.ID, f.Name, f.RiskLevel, polygon, f.Active)
	return err
}

func (r *GeofenceRepo) GetByID(ctx context.Context, id string) (*domain.Geofence, error) {
	f := &domain.Geofence{}
	var polygon []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, COALESCE(company_id::text, ''), name, risk_level, polygon, active, created_at
		FROM geofences WHERE id = $1
	`, id).Scan(&f.ID, &f.CompanyID, &f.Name, &f.RiskLevel, &polygon, &f.Active, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(polygon, &f.Polygon); err != nil {
		return nil, fmt.Errorf("unmarshal polygon: %w", err)
	}
	return f, nil
}

func (r *GeofenceRepo) ListActive(ctx context.Context) ([]domain.Geofence, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, COALESCE(company_id::text, ''), name, risk_level, polygon, active, created_at
		FROM geofences
		WHERE active
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fences []domain.Geofence
	for rows.Next() {
		var f domain.Geofence
		var polygon []byte
		if err := rows.Scan(&f.ID, &f.CompanyID, &f.Name, &f.RiskLevel,
			&polygon, &f.Active, &f.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(polygon, &f.Polygon); err != nil {
			return nil, fmt.Errorf("unmarshal polygon: %w", err)
		}
		fences = append(fences, f)
	}
	return fences, rows.Err()
}
