package usecases

import (
	"context"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
	"github.com/dkarolys/fleetpulse/internal/core/ports"
)

// CompanyService handles fleet-operator tenant lookups.
type CompanyService struct {
	companies ports.CompanyRepository
}

// NewCompanyService creates a new CompanyService.
func NewCompanyService(companies ports.CompanyRepository) *CompanyService {
	return &CompanyService{companies: companies}
}

// List returns all companies.
func (s *CompanyService) List(ctx context.Context) ([]domain.Company, error) {
	return s.companies.List(ctx)
}

// GetBySlug returns a company by slug.
func (s *CompanyService) GetBySlug(ctx context.Context, slug string) (*domain.Company, error) {
	return s.companies.GetBySlug(ctx, slug)
}
