package ports

import (
	"context"
	"time"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
)

// CompanyRepository persists fleet operator tenants.
type CompanyRepository interface {
	Upsert(ctx context.Context, company *domain.Company) error
	GetBySlug(ctx context.Context, slug string) (*domain.Company, error)
	List(ctx context.Context) ([]domain.Company, error)
}

// DriverRepository persists driver accounts.
type DriverRepository interface {
	Create(ctx context.Context, driver *domain.Driver) error
	Update(ctx context.Context, driver *domain.Driver) error
	GetByID(ctx context.Context, id string) (*domain.Driver, error)
	GetByLicense(ctx context.Context, license string) (*domain.Driver, error)
	ListByCompany(ctx context.Context, companyID string) ([]domain.Driver, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// VehicleRepository persists vehicles.
type VehicleRepository interface {
	Upsert(ctx context.Context, vehicle *domain.Vehicle) error
	UpsertBatch(ctx context.Context, vehicles []domain.Vehicle) error
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)
	ListByCompany(ctx context.Context, companyID string) ([]domain.Vehicle, error)
	CountActive(ctx context.Context) (int, error)
}

// TripRepository persists trips.
type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) error
	GetByID(ctx context.Context, id string) (*domain.Trip, error)
	ListByVehicle(ctx context.Context, vehicleID string, limit int) ([]domain.Trip, error)
	End(ctx context.Context, id string, status domain.TripStatus, endedAt time.Time) error
}

// PositionRepository is the append-only ordered log of GPS samples.
// Samples returns one trip's samples ordered by captured_at ascending;
// the returned slice is a fresh snapshot owned by the caller.
type PositionRepository interface {
	Append(ctx context.Context, sample *domain.PositionSample) error
	AppendBatch(ctx context.Context, samples []domain.PositionSample) error
	Samples(ctx context.Context, tripID string) ([]domain.PositionSample, error)
	LatestByCompany(ctx context.Context, companyID string) ([]domain.PositionSample, error)
}

// SecurityEventRepository is the append-only security event log.
type SecurityEventRepository interface {
	Append(ctx context.Context, event *domain.SecurityEvent) error
	GetByID(ctx context.Context, id string) (*domain.SecurityEvent, error)
	ListWindow(ctx context.Context, from, to time.Time) ([]domain.SecurityEvent, error)
	ListByVehicle(ctx context.Context, vehicleID string, limit int) ([]domain.SecurityEvent, error)
}

// GeofenceRepository persists geofence zones.
type GeofenceRepository interface {
	Create(ctx context.Context, fence *domain.Geofence) error
	Update(ctx context.Context, fence *domain.Geofence) error
	GetByID(ctx context.Context, id string) (*domain.Geofence, error)
	ListActive(ctx context.Context) ([]domain.Geofence, error)
}
