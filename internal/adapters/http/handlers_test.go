package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/dkarolys/fleetpulse/internal/adapters/http"
	"github.com/dkarolys/fleetpulse/internal/core/domain"
	"github.com/dkarolys/fleetpulse/internal/core/usecases"
)

// ---- Mock repositories ----

type mockCompanyRepo struct {
	listFn      func(ctx context.Context) ([]domain.Company, error)
	getBySlugFn func(ctx context.Context, slug string) (*domain.Company, error)
}

func (m *mockCompanyRepo) Upsert(ctx context.Context, c *domain.Company) error { return nil }
func (m *mockCompanyRepo) List(ctx context.Context) ([]domain.Company, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockCompanyRepo) GetBySlug(ctx context.Context, slug string) (*domain.Company, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug)
	}
	return nil, nil
}

type mockDriverRepo struct {
	createFn func(ctx context.Context, d *domain.Driver) error
	getFn    func(ctx context.Context, id string) (*domain.Driver, error)
}

func (m *mockDriverRepo) Create(ctx context.Context, d *domain.Driver) error {
	if m.createFn != nil {
		return m.createFn(ctx, d)
	}
	return nil
}
func (m *mockDriverRepo) Update(ctx context.Context, d *domain.Driver) error { return nil }
func (m *mockDriverRepo) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockDriverRepo) GetByLicense(ctx context.Context, license string) (*domain.Driver, error) {
	return nil, fmt.Errorf("not found")
}
func (m *mockDriverRepo) ListByCompany(ctx context.Context, companyID string) ([]domain.Driver, error) {
	return nil, nil
}
func (m *mockDriverRepo) SetActive(ctx context.Context, id string, active bool) error { return nil }

type mockVehicleRepo struct {
	listFn func(ctx context.Context, companyID string) ([]domain.Vehicle, error)
	getFn  func(ctx context.Context, id string) (*domain.Vehicle, error)
}

func (m *mockVehicleRepo) Upsert(ctx context.Context, v *domain.Vehicle) error        { return nil }
func (m *mockVehicleRepo) UpsertBatch(ctx context.Context, v []domain.Vehicle) error  { return nil }
func (m *mockVehicleRepo) CountActive(ctx context.Context) (int, error)               { return 0, nil }
func (m *mockVehicleRepo) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockVehicleRepo) ListByCompany(ctx context.Context, companyID string) ([]domain.Vehicle, error) {
	if m.listFn != nil {
		return m.listFn(ctx, companyID)
	}
	return nil, nil
}

type mockTripRepo struct {
	getByIDFn func(ctx context.Context, id string) (*domain.Trip, error)
}

func (m *mockTripRepo) Create(ctx context.Context, t *domain.Trip) error { return nil }
func (m *mockTripRepo) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockTripRepo) ListByVehicle(ctx context.Context, vehicleID string, limit int) ([]domain.Trip, error) {
	return nil, nil
}
func (m *mockTripRepo) End(ctx context.Context, id string, status domain.TripStatus, endedAt time.Time) error {
	return nil
}

type mockPositionRepo struct {
	samplesFn func(ctx context.Context, tripID string) ([]domain.PositionSample, error)
	latestFn  func(ctx context.Context, companyID string) ([]domain.PositionSample, error)
}

func (m *mockPositionRepo) Append(ctx context.Context, s *domain.PositionSample) error { return nil }
func (m *mockPositionRepo) AppendBatch(ctx context.Context, s []domain.PositionSample) error {
	return nil
}
func (m *mockPositionRepo) Samples(ctx context.Context, tripID string) ([]domain.PositionSample, error) {
	if m.samplesFn != nil {
		return m.samplesFn(ctx, tripID)
	}
	return nil, nil
}
func (m *mockPositionRepo) LatestByCompany(ctx context.Context, companyID string) ([]domain.PositionSample, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, companyID)
	}
	return nil, nil
}

type mockEventRepo struct {
	windowFn func(ctx context.Context, from, to time.Time) ([]domain.SecurityEvent, error)
	getFn    func(ctx context.Context, id string) (*domain.SecurityEvent, error)
}

func (m *mockEventRepo) Append(ctx context.Context, e *domain.SecurityEvent) error { return nil }
func (m *mockEventRepo) GetByID(ctx context.Context, id string) (*domain.SecurityEvent, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockEventRepo) ListWindow(ctx context.Context, from, to time.Time) ([]domain.SecurityEvent, error) {
	if m.windowFn != nil {
		return m.windowFn(ctx, from, to)
	}
	return nil, nil
}
func (m *mockEventRepo) ListByVehicle(ctx context.Context, vehicleID string, limit int) ([]domain.SecurityEvent, error) {
	return nil, nil
}

type mockGeofenceRepo struct {
	listActiveFn func(ctx context.Context) ([]domain.Geofence, error)
}

func (m *mockGeofenceRepo) Create(ctx context.Context, f *domain.Geofence) error { return nil }
func (m *mockGeofenceRepo) Update(ctx context.Context, f *domain.Geofence) error { return nil }
func (m *mockGeofenceRepo) GetByID(ctx context.Context, id string) (*domain.Geofence, error) {
	return nil, fmt.Errorf("not found")
}
func (m *mockGeofenceRepo) ListActive(ctx context.Context) ([]domain.Geofence, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx)
	}
	return nil, nil
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Companies: usecases.NewCompanyService(&mockCompanyRepo{}),
		Drivers:   usecases.NewDriverService(&mockDriverRepo{}),
		Vehicles:  usecases.NewVehicleService(&mockVehicleRepo{}, &mockPositionRepo{}, nil),
		Trips:     usecases.NewTripService(&mockTripRepo{}, &mockPositionRepo{}),
		Geofences: usecases.NewGeofenceService(&mockGeofenceRepo{}, &mockEventRepo{}, nil),
		Safety:    usecases.NewSafetyService(&mockEventRepo{}, &mockVehicleRepo{}, nil, nil),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

// ---- Company handler tests ----

func TestListCompanies_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Companies = usecases.NewCompanyService(&mockCompanyRepo{
			listFn: func(ctx context.Context) ([]domain.Company, error) {
				return []domain.Company{
					{ID: "c1", Slug: "norte-logistica", Name: "Norte Logística"},
					{ID: "c2", Slug: "cargas-del-sur", Name: "Cargas del Sur"},
				}, nil
			},
		})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/companies", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Company `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 2 {
		t.Errorf("expected total 2, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 2 {
		t.Errorf("expected 2 companies, got %d", len(result.Data))
	}
}

func TestListCompanies_Pagination(t *testing.T) {
	companies := make([]domain.Company, 5)
	for i := range companies {
		companies[i] = domain.Company{ID: fmt.Sprintf("c%d", i), Name: fmt.Sprintf("Company %d", i)}
	}

	deps := makeDeps(func(d *handler.Dependencies) {
		d.Companies = usecases.NewCompanyService(&mockCompanyRepo{
			listFn: func(ctx context.Context) ([]domain.Company, error) { return companies, nil },
		})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/companies?offset=2&limit=2", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Company `json:"data"`
		Pagination struct {
			Offset int `json:"offset"`
			Limit  int `json:"limit"`
			Total  int `json:"total"`
		} `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 5 {
		t.Errorf("expected total 5, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 2 {
		t.Errorf("expected 2 companies in page, got %d", len(result.Data))
	}
	if result.Pagination.Offset != 2 {
		t.Errorf("expected offset 2, got %d", result.Pagination.Offset)
	}
}

func TestGetCompany_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Companies = usecases.NewCompanyService(&mockCompanyRepo{
			getBySlugFn: func(ctx context.Context, slug string) (*domain.Company, error) {
				return &domain.Company{ID: "c1", Slug: slug, Name: "Norte Logística"}, nil
			},
		})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/companies/norte-logistica", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var company domain.Company
	json.NewDecoder(resp.Body).Decode(&company)
	if company.Slug != "norte-logistica" {
		t.Errorf("expected slug norte-logistica, got %s", company.Slug)
	}
}

func TestGetCompany_NotFound(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Companies = usecases.NewCompanyService(&mockCompanyRepo{
			getBySlugFn: func(ctx context.Context, slug string) (*domain.Company, error) {
				return nil, fmt.Errorf("not found")
			},
		})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/companies/nonexistent", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCompanyVehicles_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Companies = usecases.NewCompanyService(&mockCompanyRepo{
			getBySlugFn: func(ctx context.Context, slug string) (*domain.Company, error) {
				return &domain.Company{ID: "c1", Slug: slug}, nil
			},
		})
		d.Vehicles = usecases.NewVehicleService(&mockVehicleRepo{
			listFn: func(ctx context.Context, companyID string) ([]domain.Vehicle, error) {
				return []domain.Vehicle{
					{ID: "v1", Plate: "1234-BBK", CompanyID: companyID},
					{ID: "v2", Plate: "5678-CDR", CompanyID: companyID},
				}, nil
			},
		}, &mockPositionRepo{}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/companies/norte-logistica/vehicles", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var vehicles []domain.Vehicle
	json.NewDecoder(resp.Body).Decode(&vehicles)
	if len(vehicles) != 2 {
		t.Errorf("expected 2 vehicles, got %d", len(vehicles))
	}
}

func TestCompanyPositions_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Companies = usecases.NewCompanyService(&mockCompanyRepo{
			getBySlugFn: func(ctx context.Context, slug string) (*domain.Company, error) {
				return &domain.Company{ID: "c1", Slug: slug}, nil
			},
		})
		d.Vehicles = usecases.NewVehicleService(&mockVehicleRepo{}, &mockPositionRepo{
			latestFn: func(ctx context.Context, companyID string) ([]domain.PositionSample, error) {
				return []domain.PositionSample{
					{VehicleID: "v1", Location: domain.GeoPoint{Lat: 43.26, Lng: -2.93}, SpeedKmh: 40},
				}, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/companies/norte-logistica/positions", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var positions []domain.PositionSample
	json.NewDecoder(resp.Body).Decode(&positions)
	if len(positions) != 1 {
		t.Errorf("expected 1 position, got %d", len(positions))
	}
}

// ---- Trip handler tests ----

func TestGetTrip_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Trips = usecases.NewTripService(&mockTripRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.Trip, error) {
				return &domain.Trip{ID: id, VehicleID: "v1", Status: domain.TripInProgress}, nil
			},
		}, &mockPositionRepo{})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/trips/trip-uuid", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var trip domain.Trip
	json.NewDecoder(resp.Body).Decode(&trip)
	if trip.Status != domain.TripInProgress {
		t.Errorf("expected in_progress, got %s", trip.Status)
	}
}

func TestGetTrip_NotFound(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Trips = usecases.NewTripService(&mockTripRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.Trip, error) {
				return nil, fmt.Errorf("not found")
			},
		}, &mockPositionRepo{})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/trips/bad-id", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestTripSummary_Success(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Trips = usecases.NewTripService(&mockTripRepo{}, &mockPositionRepo{
			samplesFn: func(ctx context.Context, tripID string) ([]domain.PositionSample, error) {
				return []domain.PositionSample{
					{Location: domain.GeoPoint{Lat: 43.2, Lng: -2.9}, SpeedKmh: 10, CapturedAt: t0},
					{Location: domain.GeoPoint{Lat: 43.2, Lng: -2.9}, SpeedKmh: 0, CapturedAt: t0.Add(time.Second)},
					{Location: domain.GeoPoint{Lat: 43.2, Lng: -2.9}, SpeedKmh: 0, CapturedAt: t0.Add(130 * time.Second)},
					{Location: domain.GeoPoint{Lat: 43.2, Lng: -2.9}, SpeedKmh: 20, CapturedAt: t0.Add(131 * time.Second)},
				}, nil
			},
		})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/trips/trip-uuid/summary", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var summary domain.TripSummary
	json.NewDecoder(resp.Body).Decode(&summary)
	if summary.MaxSpeedKmh != 20 {
		t.Errorf("expected max 20, got %f", summary.MaxSpeedKmh)
	}
	if len(summary.Stops) != 1 {
		t.Errorf("expected 1 detected stop, got %d", len(summary.Stops))
	}
}

func TestStartTrip_MissingVehicle(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/trips", strings.NewReader(`{"driver_id":"d1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Geofence handler tests ----

func TestListGeofences_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Geofences = usecases.NewGeofenceService(&mockGeofenceRepo{
			listActiveFn: func(ctx context.Context) ([]domain.Geofence, error) {
				return []domain.Geofence{
					{ID: "g1", Name: "Port restricted area", RiskLevel: domain.RiskDanger, Active: true},
				}, nil
			},
		}, &mockEventRepo{}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/geofences", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var fences []domain.Geofence
	json.NewDecoder(resp.Body).Decode(&fences)
	if len(fences) != 1 {
		t.Errorf("expected 1 geofence, got %d", len(fences))
	}
}

func TestCreateGeofence_DegeneratePolygon(t *testing.T) {
	app := setupApp(makeDeps())

	body := `{"name":"bad","risk_level":"info","polygon":[{"lat":0,"lng":0},{"lat":1,"lng":1}]}`
	req := httptest.NewRequest("POST", "/v1/geofences", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Event handler tests ----

func TestRecordEvent_UnknownType(t *testing.T) {
	app := setupApp(makeDeps())

	body := `{"type":"SPEEDING","severity":"low","vehicle_id":"v1"}`
	req := httptest.NewRequest("POST", "/v1/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRecordEvent_SOSIsSealed(t *testing.T) {
	app := setupApp(makeDeps())

	body := `{"type":"SOS","severity":"critical","vehicle_id":"v1"}`
	req := httptest.NewRequest("POST", "/v1/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var event domain.SecurityEvent
	json.NewDecoder(resp.Body).Decode(&event)
	if event.IntegrityHash == "" {
		t.Error("expected sealed event in response")
	}
	if event.ID == "" {
		t.Error("expected event id assigned before sealing")
	}
}

func TestListEvents_CSVExport(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Safety = usecases.NewSafetyService(&mockEventRepo{
			windowFn: func(ctx context.Context, from, to time.Time) ([]domain.SecurityEvent, error) {
				return []domain.SecurityEvent{
					{ID: "e1", Type: domain.EventSOS, Severity: domain.SeverityCritical, VehicleID: "v1", Timestamp: to},
				}, nil
			},
		}, &mockVehicleRepo{}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/events?format=csv", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("expected CSV content type, got %q", ct)
	}

	body := string(readBody(t, resp.Body))
	if !strings.Contains(body, "integrity_hash") {
		t.Error("expected CSV header row")
	}
	if !strings.Contains(body, "e1,SOS,critical,v1") {
		t.Errorf("expected event row in CSV, got: %s", body)
	}
}

func TestListEvents_BadWindow(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/events?from=not-a-date", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Safety report tests ----

func TestSafetyReport_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Safety = usecases.NewSafetyService(&mockEventRepo{
			windowFn: func(ctx context.Context, from, to time.Time) ([]domain.SecurityEvent, error) {
				return nil, nil
			},
		}, &mockVehicleRepo{}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/safety/report", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var report domain.SafetyReport
	json.NewDecoder(resp.Body).Decode(&report)
	if report.Index != 100 {
		t.Errorf("expected index 100 with no events, got %d", report.Index)
	}
}

func TestSafetyReport_BadWindow(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/safety/report?window=soon", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSafetyIndexAlias_DeprecationHeaders(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/safety/index", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Deprecation") != "true" {
		t.Error("expected Deprecation header on legacy alias")
	}
	if link := resp.Header.Get("Link"); !strings.Contains(link, "/v1/safety/report") {
		t.Errorf("expected successor link, got %q", link)
	}
}

// ---- Health handler tests ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", result["status"])
	}
}

func TestReady_NoDB(t *testing.T) {
	deps := makeDeps()
	// DB, NATS, Cache are nil, should report not ready
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	// With nil DB, ready should return 503
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

// ---- X-API-Version header ----

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	v := resp.Header.Get("X-API-Version")
	if v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

func TestRequireToken(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.APIToken = "hunter2"
	})
	app := setupApp(deps)

	body := `{"company_id":"c1","plate":"1234-BCD"}`

	// No token at all
	req := httptest.NewRequest("POST", "/v1/vehicles", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	// Wrong token
	req = httptest.NewRequest("POST", "/v1/vehicles", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer wrong")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401 with wrong token, got %d", resp.StatusCode)
	}

	// Correct token reaches the handler
	req = httptest.NewRequest("POST", "/v1/vehicles", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer hunter2")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode == 401 {
		t.Fatal("expected valid token to pass the gate")
	}

	// Reads stay open
	req = httptest.NewRequest("GET", "/v1/companies", nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 on unauthenticated read, got %d", resp.StatusCode)
	}
}

// ---- Link header on pagination ----

func TestListCompanies_LinkHeader(t *testing.T) {
	companies := make([]domain.Company, 10)
	for i := range companies {
		companies[i] = domain.Company{ID: fmt.Sprintf("c%d", i), Name: fmt.Sprintf("Company %d", i)}
	}

	deps := makeDeps(func(d *handler.Dependencies) {
		d.Companies = usecases.NewCompanyService(&mockCompanyRepo{
			listFn: func(ctx context.Context) ([]domain.Company, error) { return companies, nil },
		})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/companies?offset=0&limit=3", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	link := resp.Header.Get("Link")
	if link == "" {
		t.Fatal("expected Link header, got empty")
	}
	// Should contain rel="next"
	if !strings.Contains(link, `rel="next"`) {
		t.Errorf("expected next link, got %s", link)
	}
	if !strings.Contains(link, `rel="first"`) {
		t.Errorf("expected first link, got %s", link)
	}
	if !strings.Contains(link, `rel="last"`) {
		t.Errorf("expected last link, got %s", link)
	}
}

// TestAccessLogMiddleware verifies structured access logging is emitted.
func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()

	// Register middleware
	app.Use(handler.AccessLogMiddleware())

	// Simple test route
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	// Make request
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-req-123")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	// Verify response body
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ok") {
		t.Errorf("expected response body to contain 'ok', got %s", string(body))
	}
}
