package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// AckSignal is the signal name a coordinator sends to acknowledge an SOS.
const AckSignal = "sos-acknowledged"

// EscalationInput is the input for the SOS escalation workflow.
type EscalationInput struct {
	EventID   string
	VehicleID string
	Lat       float64
	Lng       float64
	AckWindow time.Duration // 0 means the default 5 minutes
}

// AckPayload carries who acknowledged the SOS.
type AckPayload struct {
	CoordinatorID string
}

// EscalationWorkflow handles a critical SOS event: notify the fleet
// coordinator, wait for an acknowledgment signal, and escalate to the
// emergency line if nobody acks in time. If the emergency notification
// itself fails, the alert falls back to a fleet-wide broadcast so it is
// never silently dropped.
func EscalationWorkflow(ctx workflow.Context, input EscalationInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting SOS escalation", "eventID", input.EventID, "vehicleID", input.VehicleID)

	ackWindow := input.AckWindow
	if ackWindow <= 0 {
		ackWindow = 5 * time.Minute
	}

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: resolve the vehicle so notifications carry a human label
	var vehicleLabel string
	if err := workflow.ExecuteActivity(ctx, "ResolveVehicleLabel", input.VehicleID).Get(ctx, &vehicleLabel); err != nil {
		return err
	}

	var coordinatorID string
	if err := workflow.ExecuteActivity(ctx, "ResolveCoordinator", input.VehicleID).Get(ctx, &coordinatorID); err != nil {
		return err
	}

	// Step 2: notify the coordinator
	if err := workflow.ExecuteActivity(ctx, "NotifyCoordinator", coordinatorID, vehicleLabel, input).Get(ctx, nil); err != nil {
		logger.Warn("coordinator notification failed, escalating immediately", "error", err)
	}

	// Step 3: wait for the ack signal or the timeout
	var ack AckPayload
	acked := false

	sigCh := workflow.GetSignalChannel(ctx, AckSignal)
	timerCtx, cancelTimer := workflow.WithCancel(ctx)
	timer := workflow.NewTimer(timerCtx, ackWindow)

	selector := workflow.NewSelector(ctx)
	selector.AddReceive(sigCh, func(c workflow.ReceiveChannel, more bool) {
		c.Receive(ctx, &ack)
		acked = true
		cancelTimer()
	})
	selector.AddFuture(timer, func(f workflow.Future) {})
	selector.Select(ctx)

	if acked {
		logger.Info("SOS acknowledged", "coordinator", ack.CoordinatorID)
		return workflow.ExecuteActivity(ctx, "RecordResolution", input.EventID, ack.CoordinatorID).Get(ctx, nil)
	}

	// Step 4: nobody acked, escalate to the emergency line
	logger.Warn("SOS not acknowledged in time, escalating", "window", ackWindow)
	err := workflow.ExecuteActivity(ctx, "NotifyEmergencyLine", vehicleLabel, input).Get(ctx, nil)
	if err != nil {
		// Fallback: the alert must surface somewhere
		logger.Warn("emergency notification failed, broadcasting", "error", err)
		if berr := workflow.ExecuteActivity(ctx, "BroadcastFleetAlert", vehicleLabel, input).Get(ctx, nil); berr != nil {
			return berr
		}
	}

	return workflow.ExecuteActivity(ctx, "RecordEscalation", input.EventID).Get(ctx, nil)
}
