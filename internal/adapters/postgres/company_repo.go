package postgres

import (
	"context"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
)

// CompanyRepo implements ports.CompanyRepository.
type CompanyRepo struct {
	db *DB
}

func NewCompanyRepo(db *DB) *CompanyRepo {
	return &CompanyRepo{db: db}
}

func (r *CompanyRepo) Upsert(ctx context.Context, c *domain.Company) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO companies (slug, name, timezone)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, created_at
	`, c.Slug, c.Name, c.Timezone).Scan(&c.ID, &c.CreatedAt)
}

func (r *CompanyRepo) GetBySlug(ctx context.Context, slug string) (*domain.Company, error) {
	c := &domain.Company{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, slug, name, timezone, created_at
		FROM companies WHERE slug = $1
	`, slug).Scan(&c.ID, &c.Slug, &c.Name, &c.Timezone, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CompanyRepo) List(ctx context.Context) ([]domain.Company, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, slug, name, timezone, created_at
		FROM companies ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []domain.Company
	for rows.Next() {
		var c domain.Company
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.Timezone, &c.CreatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}
