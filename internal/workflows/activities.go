package workflows

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
	"github.com/dkarolys/fleetpulse/internal/core/ports"
	"github.com/dkarolys/fleetpulse/internal/core/usecases"
)

// EscalationActivities holds the activity implementations for the SOS
// escalation workflow.
type EscalationActivities struct {
	Safety    *usecases.SafetyService
	Vehicles  ports.VehicleRepository
	Drivers   ports.DriverRepository
	Publisher ports.EventPublisher
	Notifier  ports.NotificationService
}

// ResolveVehicleLabel returns a human-readable label for the vehicle.
func (a *EscalationActivities) ResolveVehicleLabel(ctx context.Context, vehicleID string) (string, error) {
	v, err := a.Vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return "", fmt.Errorf("get vehicle %s: %w", vehicleID, err)
	}
	if v.Label != "" {
		return v.Label, nil
	}
	return v.Plate, nil
}

// ResolveCoordinator returns the user to notify for a vehicle's SOS.
// The assigned driver's account doubles as the coordinator contact when
// no dedicated coordinator is configured.
func (a *EscalationActivities) ResolveCoordinator(ctx context.Context, vehicleID string) (string, error) {
	v, err := a.Vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return "", fmt.Errorf("get vehicle %s: %w", vehicleID, err)
	}
	if v.DriverID == "" {
		return "", fmt.Errorf("vehicle %s has no assigned driver", vehicleID)
	}
	d, err := a.Drivers.GetByID(ctx, v.DriverID)
	if err != nil {
		return "", fmt.Errorf("get driver %s: %w", v.DriverID, err)
	}
	return d.ID, nil
}

// NotifyCoordinator pushes the SOS alert to the coordinator.
func (a *EscalationActivities) NotifyCoordinator(ctx context.Context, coordinatorID, vehicleLabel string, input EscalationInput) error {
	if a.Notifier == nil {
		log.Printf("PUSH (no notifier) → coordinator=%s vehicle=%s event=%s", coordinatorID, vehicleLabel, input.EventID)
		return nil
	}
	title := fmt.Sprintf("SOS from %s", vehicleLabel)
	body := fmt.Sprintf("Emergency at %.5f, %.5f. Acknowledge in the dashboard.", input.Lat, input.Lng)
	return a.Notifier.SendPush(ctx, coordinatorID, title, body)
}

// NotifyEmergencyLine alerts the emergency contact channel after the
// ack window elapses.
func (a *EscalationActivities) NotifyEmergencyLine(ctx context.Context, vehicleLabel string, input EscalationInput) error {
	if a.Notifier == nil {
		return fmt.Errorf("no notifier configured for emergency line")
	}
	title := fmt.Sprintf("UNACKNOWLEDGED SOS from %s", vehicleLabel)
	body := fmt.Sprintf("No coordinator responded. Last position %.5f, %.5f.", input.Lat, input.Lng)
	return a.Notifier.SendPush(ctx, "emergency-line", title, body)
}

// BroadcastFleetAlert publishes the alert on the fleet broadcast subject
// so every connected dashboard sees it.
func (a *EscalationActivities) BroadcastFleetAlert(ctx context.Context, vehicleLabel string, input EscalationInput) error {
	if a.Publisher == nil {
		return fmt.Errorf("no publisher configured")
	}
	payload, err := json.Marshal(map[string]any{
		"alert":      "unacknowledged_sos",
		"event_id":   input.EventID,
		"vehicle_id": input.VehicleID,
		"vehicle":    vehicleLabel,
		"lat":        input.Lat,
		"lng":        input.Lng,
		"at":         time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return a.Publisher.PublishBroadcast(ctx, payload)
}

// RecordResolution appends a sealed follow-up event marking the SOS as
// acknowledged.
func (a *EscalationActivities) RecordResolution(ctx context.Context, eventID, coordinatorID string) error {
	event := &domain.SecurityEvent{
		Type:        domain.EventSOS,
		Severity:    domain.SeverityLow,
		Description: fmt.Sprintf("SOS %s acknowledged by %s", eventID, coordinatorID),
		Metadata: map[string]any{
			"phase":           "resolved",
			"parent_event_id": eventID,
			"coordinator_id":  coordinatorID,
		},
	}
	return a.Safety.RecordEvent(ctx, event)
}

// RecordEscalation appends a sealed follow-up event marking the SOS as
// escalated past the coordinator.
func (a *EscalationActivities) RecordEscalation(ctx context.Context, eventID string) error {
	event := &domain.SecurityEvent{
		Type:        domain.EventSOS,
		Severity:    domain.SeverityCritical,
		Description: fmt.Sprintf("SOS %s escalated: no acknowledgment", eventID),
		Metadata: map[string]any{
			"phase":           "escalated",
			"parent_event_id": eventID,
		},
	}
	return a.Safety.RecordEvent(ctx, event)
}
