package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sync"

	"github.com/dkarolys/fleetpulse/internal/adapters/postgres"
	"github.com/dkarolys/fleetpulse/internal/core/domain"
	"github.com/dkarolys/fleetpulse/internal/pkg/config"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

type Manifest struct {
	Source    string         `json:"source"`
	Companies []CompanyEntry `json:"companies"`
	Geofences []FenceEntry   `json:"geofences,omitempty"`
}

type CompanyEntry struct {
	Name     string         `json:"name"`
	Slug     string         `json:"slug"`
	Timezone string         `json:"timezone,omitempty"`
	Drivers  []DriverEntry  `json:"drivers,omitempty"`
	Vehicles []VehicleEntry `json:"vehicles,omitempty"`
}

type DriverEntry struct {
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	LicenseNumber string `json:"license_number"`
}

type VehicleEntry struct {
	Plate         string `json:"plate"`
	Label         string `json:"label,omitempty"`
	DriverLicense string `json:"driver_license,omitempty"`
}

type FenceEntry struct {
	Name      string            `json:"name"`
	RiskLevel string            `json:"risk_level"`
	Polygon   []domain.GeoPoint `json:"polygon"`
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("fleetpulse-seed")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	manifestPath := "manifest.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.Fatalf("parse manifest: %v", err)
	}

	log.Printf("FleetPulse Seeder — %d companies from %s", len(manifest.Companies), manifest.Source)

	companies := postgres.NewCompanyRepo(db)
	drivers := postgres.NewDriverRepo(db)
	vehicles := postgres.NewVehicleRepo(db)
	fences := postgres.NewGeofenceRepo(db)

	var wg sync.WaitGroup
	sem := make(chan struct{}, 4) // max 4 companies in flight

	for _, entry := range manifest.Companies {
		wg.Add(1)
		go func(e CompanyEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := seedCompany(ctx, companies, drivers, vehicles, e); err != nil {
				log.Printf("ERROR [%s]: %v", e.Slug, err)
			}
		}(entry)
	}

	wg.Wait()

	for _, f := range manifest.Geofences {
		fence := &domain.Geofence{
			Name:      f.Name,
			RiskLevel: domain.RiskLevel(f.RiskLevel),
			Polygon:   f.Polygon,
			Active:    true,
		}
		if err := fences.Create(ctx, fence); err != nil {
			log.Printf("ERROR geofence %q: %v", f.Name, err)
			continue
		}
		log.Printf("geofence %q (%s) id=%s", f.Name, f.RiskLevel, fence.ID)
	}

	log.Println("seeding complete")
}

// ---------------------------------------------------------------------------
// Per-company seeding
// ---------------------------------------------------------------------------

func seedCompany(
	ctx context.Context,
	companies *postgres.CompanyRepo,
	drivers *postgres.DriverRepo,
	vehicles *postgres.VehicleRepo,
	e CompanyEntry,
) error {
	tz := e.Timezone
	if tz == "" {
		tz = "Europe/Madrid"
	}

	company := &domain.Company{Slug: e.Slug, Name: e.Name, Timezone: tz}
	if err := companies.Upsert(ctx, company); err != nil {
		return err
	}
	log.Printf("[%s] company_id=%s", e.Slug, company.ID)

	// Drivers keyed by license so vehicles can reference them below.
	// Re-runs reuse the existing account instead of violating the
	// license uniqueness constraint.
	driverIDs := make(map[string]string)
	for _, d := range e.Drivers {
		if existing, err := drivers.GetByLicense(ctx, d.LicenseNumber); err == nil {
			driverIDs[d.LicenseNumber] = existing.ID
			continue
		}
		driver := &domain.Driver{
			CompanyID:     company.ID,
			Name:          d.Name,
			Email:         d.Email,
			Phone:         d.Phone,
			LicenseNumber: d.LicenseNumber,
			Active:        true,
		}
		if err := drivers.Create(ctx, driver); err != nil {
			log.Printf("[%s] driver %s: %v", e.Slug, d.Name, err)
			continue
		}
		driverIDs[d.LicenseNumber] = driver.ID
	}
	log.Printf("[%s]   drivers: %d", e.Slug, len(driverIDs))

	batch := make([]domain.Vehicle, 0, len(e.Vehicles))
	for _, v := range e.Vehicles {
		batch = append(batch, domain.Vehicle{
			CompanyID: company.ID,
			Plate:     v.Plate,
			Label:     v.Label,
			DriverID:  driverIDs[v.DriverLicense],
			Active:    true,
		})
	}
	if len(batch) > 0 {
		if err := vehicles.UpsertBatch(ctx, batch); err != nil {
			return err
		}
	}
	log.Printf("[%s]   vehicles: %d", e.Slug, len(batch))

	return nil
}
