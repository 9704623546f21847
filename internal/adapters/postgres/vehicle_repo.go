package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
)

// VehicleRepo implements ports.VehicleRepository.
type VehicleRepo struct {
	db *DB
}

func NewVehicleRepo(db *DB) *VehicleRepo {
	return &VehicleRepo{db: db}
}

func (r *VehicleRepo) Upsert(ctx context.Context, v *domain.Vehicle) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO vehicles (company_id, plate, label, driver_id, active, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (company_id, plate) DO UPDATE
		SET label = EXCLUDED.label, driver_id = EXCLUDED.driver_id,
		    active = EXCLUDED.active, metadata = EXCLUDED.metadata
		RETURNING id, created_at
	`, v.CompanyID, v.Plate, v.Label, nilIfEmpty(v.DriverID), v.Active, v.Metadata).
		Scan(&v.ID, &v.CreatedAt)
}

// UpsertBatch inserts many vehicles using pgx.Batch. Used by the fleet
// manifest seeder.
func (r *VehicleRepo) UpsertBatch(ctx context.Context, vehicles []domain.Vehicle) error {
	batch := &pgx.Batch{}
	for _, v := range vehicles {
		batch.Queue(`
			INSERT INTO vehicles (company_id, plate, label, driver_id, active, metadata)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (company_id, plate) DO UPDATE
			SET label = EXCLUDED.label, active = EXCLUDED.active
		`, v.CompanyID, v.Plate, v.Label, nilIfEmpty(v.DriverID), v.Active, v.Metadata)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range vehicles {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

func (r *VehicleRepo) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	v := &domain.Vehicle{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, company_id, plate, COALESCE(label, ''), COALESCE(driver_id::text, ''),
		       active, COALESCE(metadata, '{}'), created_at
		FROM vehicles WHERE id = $1
	`, id).Scan(&v.ID, &v.CompanyID, &v.Plate, &v.Label, &v.DriverID,
		&v.Active, &v.Metadata, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *VehicleRepo) ListByCompany(ctx context.Context, companyID string) ([]domain.Vehicle, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, company_id, plate, COALESCE(label, ''), COALESCE(driver_id::text, ''),
		       active, COALESCE(metadata, '{}'), created_at
		FROM vehicles
		WHERE company_id = $1
		ORDER BY plate
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.CompanyID, &v.Plate, &v.Label, &v.DriverID,
			&v.Active, &v.Metadata, &v.CreatedAt); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (r *VehicleRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM vehicles WHERE active`).Scan(&n)
	return n, err
}
