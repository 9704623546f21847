package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
	"github.com/dkarolys/fleetpulse/internal/core/usecases"
)

// --- Mock VehicleRepository ---

type mockVehicleRepo struct {
	countActiveFn func(ctx context.Context) (int, error)
	listFn        func(ctx context.Context, companyID string) ([]domain.Vehicle, error)
	getFn         func(ctx context.Context, id string) (*domain.Vehicle, error)
	upserted      []*domain.Vehicle
}

func (m *mockVehicleRepo) Upsert(ctx context.Context, v *domain.Vehicle) error {
	m.upserted = append(m.upserted, v)
	return nil
}

func (m *mockVehicleRepo) UpsertBatch(ctx context.Context, vs []domain.Vehicle) error { return nil }

func (m *mockVehicleRepo) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockVehicleRepo) ListByCompany(ctx context.Context, companyID string) ([]domain.Vehicle, error) {
	if m.listFn != nil {
		return m.listFn(ctx, companyID)
	}
	return nil, nil
}

func (m *mockVehicleRepo) CountActive(ctx context.Context) (int, error) {
	if m.countActiveFn != nil {
		return m.countActiveFn(ctx)
	}
	return 0, nil
}

// --- Tests ---

func TestSafetyService_RecordEvent_SealsBeforeAppend(t *testing.T) {
	events := &mockEventRepo{}
	pub := &mockPublisher{}
	svc := usecases.NewSafetyService(events, &mockVehicleRepo{}, pub, nil)

	event := &domain.SecurityEvent{
		Type:      domain.EventSOS,
		Severity:  domain.SeverityCritical,
		VehicleID: "veh-1",
	}
	if err := svc.RecordEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events.appended) != 1 {
		t.Fatalf("expected 1 appended event, got %d", len(events.appended))
	}
	if events.appended[0].IntegrityHash == "" {
		t.Error("event must be sealed before persistence")
	}
	if !events.appended[0].VerifySeal() {
		t.Error("stored seal must verify")
	}
	if len(pub.events) != 1 {
		t.Errorf("expected event published, got %d", len(pub.events))
	}
}

func TestSafetyService_RecordEvent_RejectsUnknownType(t *testing.T) {
	svc := usecases.NewSafetyService(&mockEventRepo{}, &mockVehicleRepo{}, nil, nil)
	event := &domain.SecurityEvent{Type: "SPEEDING", Severity: domain.SeverityLow}
	if err := svc.RecordEvent(context.Background(), event); err == nil {
		t.Error("expected error for unknown event type")
	}
}

func TestSafetyService_VerifyEvent_DetectsTampering(t *testing.T) {
	sealed := &domain.SecurityEvent{
		ID:        "ev-1",
		Type:      domain.EventSOS,
		Severity:  domain.SeverityCritical,
		VehicleID: "veh-1",
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	sealed.Seal()

	tampered := *sealed
	tampered.Severity = domain.SeverityLow

	events := &mockEventRepo{
		getFn: func(ctx context.Context, id string) (*domain.SecurityEvent, error) {
			if id == "ev-1" {
				return sealed, nil
			}
			return &tampered, nil
		},
	}
	svc := usecases.NewSafetyService(events, &mockVehicleRepo{}, nil, nil)

	ok, err := svc.VerifyEvent(context.Background(), "ev-1")
	if err != nil || !ok {
		t.Errorf("intact event should verify, got ok=%v err=%v", ok, err)
	}
	ok, err = svc.VerifyEvent(context.Background(), "ev-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("tampered event must fail verification")
	}
}

func TestSafetyService_Report(t *testing.T) {
	now := time.Now().UTC()
	events := &mockEventRepo{
		windowFn: func(ctx context.Context, from, to time.Time) ([]domain.SecurityEvent, error) {
			return []domain.SecurityEvent{
				{Severity: domain.SeverityCritical, Timestamp: now.Add(-2 * time.Hour)},
				{Severity: domain.SeverityCritical, Timestamp: now.Add(-3 * 24 * time.Hour)},
				{Severity: domain.SeverityHigh, Timestamp: now.Add(-1 * time.Hour)},
			}, nil
		},
	}
	vehicles := &mockVehicleRepo{
		countActiveFn: func(ctx context.Context) (int, error) { return 4, nil },
	}
	svc := usecases.NewSafetyService(events, vehicles, nil, nil)

	report, err := svc.Report(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// penalty 5+5+2 = 12, 12/4 = 3, index 97.
	if report.Index != 97 {
		t.Errorf("expected index 97, got %d", report.Index)
	}
	if report.EventCount != 3 {
		t.Errorf("expected 3 events, got %d", report.EventCount)
	}
	// Only the critical event inside the last 24h counts.
	if report.Critical24h != 1 {
		t.Errorf("expected 1 critical in 24h, got %d", report.Critical24h)
	}
	if report.ActiveVehicles != 4 {
		t.Errorf("expected 4 active vehicles, got %d", report.ActiveVehicles)
	}
}

func TestSafetyService_Report_ZeroVehicles(t *testing.T) {
	events := &mockEventRepo{
		windowFn: func(ctx context.Context, from, to time.Time) ([]domain.SecurityEvent, error) {
			return []domain.SecurityEvent{{Severity: domain.SeverityCritical, Timestamp: time.Now()}}, nil
		},
	}
	svc := usecases.NewSafetyService(events, &mockVehicleRepo{}, nil, nil)

	report, err := svc.Report(context.Background(), usecases.DefaultReportWindow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Divides by 1 with an idle fleet; never NaN.
	if report.Index != 95 {
		t.Errorf("expected 95 with zero vehicles, got %d", report.Index)
	}
}
