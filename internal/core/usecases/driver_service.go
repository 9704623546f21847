package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
	"github.com/dkarolys/fleetpulse/internal/core/ports"
)

// DriverService lets fleet coordinators manage driver accounts.
type DriverService struct {
	drivers ports.DriverRepository
}

// NewDriverService creates a new DriverService.
func NewDriverService(drivers ports.DriverRepository) *DriverService {
	return &DriverService{drivers: drivers}
}

// Create registers a new driver account. License numbers are unique
// across the whole system, not per company.
func (s *DriverService) Create(ctx context.Context, driver *domain.Driver) error {
	if driver.Name == "" {
		return fmt.Errorf("driver name is required")
	}
	if driver.CompanyID == "" {
		return fmt.Errorf("driver company id is required")
	}
	driver.LicenseNumber = strings.ToUpper(strings.TrimSpace(driver.LicenseNumber))
	if driver.LicenseNumber == "" {
		return fmt.Errorf("driver license number is required")
	}

	if existing, err := s.drivers.GetByLicense(ctx, driver.LicenseNumber); err == nil && existing != nil {
		return fmt.Errorf("license %s already registered", driver.LicenseNumber)
	}

	driver.Active = true
	return s.drivers.Create(ctx, driver)
}

// Update modifies a driver account.
func (s *DriverService) Update(ctx context.Context, driver *domain.Driver) error {
	if driver.ID == "" {
		return fmt.Errorf("driver id is required")
	}
	return s.drivers.Update(ctx, driver)
}

// Deactivate suspends a driver account without deleting its history.
func (s *DriverService) Deactivate(ctx context.Context, id string) error {
	return s.drivers.SetActive(ctx, id, false)
}

// Reactivate re-enables a suspended account.
func (s *DriverService) Reactivate(ctx context.Context, id string) error {
	return s.drivers.SetActive(ctx, id, true)
}

// GetByID returns a single driver.
func (s *DriverService) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	return s.drivers.GetByID(ctx, id)
}

// ListByCompany returns a company's drivers.
func (s *DriverService) ListByCompany(ctx context.Context, companyID string) ([]domain.Driver, error) {
	return s.drivers.ListByCompany(ctx, companyID)
}
