package postgres

import (
	"context"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
)

// DriverRepo implements ports.DriverRepository.
type DriverRepo struct {
	db *DB
}

func NewDriverRepo(db *DB) *DriverRepo {
	return &DriverRepo{db: db}
}

func (r *DriverRepo) Create(ctx context.Context, d *domain.Driver) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO drivers (company_id, name, email, phone, license_number, active, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, d.CompanyID, d.Name, d.Email, d.Phone, d.LicenseNumber, d.Active, d.Metadata).
		Scan(&d.ID, &d.CreatedAt)
}

func (r *DriverRepo) Update(ctx context.Context, d *domain.Driver) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE drivers
		SET name = $2, email = $3, phone = $4, metadata = $5
		WHERE id = $1
	`, d.ID, d.Name, d.Email, d.Phone, d.Metadata)
	return err
}

func (r *DriverRepo) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	return r.scanOne(ctx, `WHERE id = $1`, id)
}

func (r *DriverRepo) GetByLicense(ctx context.Context, license string) (*domain.Driver, error) {
	return r.scanOne(ctx, `WHERE license_number = $1`, license)
}

func (r *DriverRepo) scanOne(ctx context.Context, where string, arg any) (*domain.Driver, error) {
	d := &domain.Driver{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, company_id, name, COALESCE(email, ''), COALESCE(phone, ''),
		       license_number, active, COALESCE(metadata, '{}'), created_at
		FROM drivers `+where,
		arg).Scan(&d.ID, &d.CompanyID, &d.Name, &d.Email, &d.Phone,
		&d.LicenseNumber, &d.Active, &d.Metadata, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DriverRepo) ListByCompany(ctx context.Context, companyID string) ([]domain.Driver, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, company_id, name, COALESCE(email, ''), COALESCE(phone, ''),
		       license_number, active, COALESCE(metadata, '{}'), created_at
		FROM drivers
		WHERE company_id = $1
		ORDER BY name
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []domain.Driver
	for rows.Next() {
		var d domain.Driver
		if err := rows.Scan(&d.ID, &d.CompanyID, &d.Name, &d.Email, &d.Phone,
			&d.LicenseNumber, &d.Active, &d.Metadata, &d.CreatedAt); err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

func (r *DriverRepo) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE drivers SET active = $2 WHERE id = $1`, id, active)
	return err
}
