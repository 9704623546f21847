package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
	"github.com/dkarolys/fleetpulse/internal/core/ports"
)

// VehicleService handles vehicle reads and live position lookups.
type VehicleService struct {
	vehicles  ports.VehicleRepository
	positions ports.PositionRepository
	cache     ports.CacheService
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(
	vehicles ports.VehicleRepository,
	positions ports.PositionRepository,
	cache ports.CacheService,
) *VehicleService {
	return &VehicleService{vehicles: vehicles, positions: positions, cache: cache}
}

// GetByID returns a single vehicle.
func (s *VehicleService) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	return s.vehicles.GetByID(ctx, id)
}

// ListByCompany returns a company's fleet with a short read-through
// cache: the fleet roster changes rarely compared to how often the
// dashboard requests it.
func (s *VehicleService) ListByCompany(ctx context.Context, companyID string) ([]domain.Vehicle, error) {
	cacheKey := "vehicles:company:" + companyID
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var vehicles []domain.Vehicle
			if err := json.Unmarshal(data, &vehicles); err == nil {
				return vehicles, nil
			}
		}
	}

	vehicles, err := s.vehicles.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(vehicles); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 60)
		}
	}

	return vehicles, nil
}

// Register upserts a vehicle and invalidates the company roster cache.
func (s *VehicleService) Register(ctx context.Context, vehicle *domain.Vehicle) error {
	if vehicle.Plate == "" {
		return fmt.Errorf("vehicle plate is required")
	}
	if vehicle.CompanyID == "" {
		return fmt.Errorf("vehicle company id is required")
	}
	if err := s.vehicles.Upsert(ctx, vehicle); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "vehicles:company:"+vehicle.CompanyID)
	}
	return nil
}

// LatestPositions returns the most recent sample per vehicle for a
// company's fleet. No cache: this is the live map view.
func (s *VehicleService) LatestPositions(ctx context.Context, companyID string) ([]domain.PositionSample, error) {
	return s.positions.LatestByCompany(ctx, companyID)
}

// CountActive returns the number of currently active vehicles.
func (s *VehicleService) CountActive(ctx context.Context) (int, error) {
	return s.vehicles.CountActive(ctx)
}
