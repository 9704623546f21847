package domain

import (
	"time"
)

// Company represents a fleet operator tenant.
type Company struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
}

// Driver is a driver account managed by a fleet coordinator.
type Driver struct {
	ID            string         `json:"id"`
	CompanyID     string         `json:"company_id"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone,omitempty"`
	LicenseNumber string         `json:"license_number"`
	Active        bool           `json:"active"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Vehicle is a tracked fleet vehicle.
type Vehicle struct {
	ID        string         `json:"id"`
	CompanyID string         `json:"company_id"`
	Plate     string         `json:"plate"`
	Label     string         `json:"label,omitempty"`
	DriverID  string         `json:"driver_id,omitempty"`
	Active    bool           `json:"active"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// TripStatus describes the lifecycle of a tracked trip.
type TripStatus string

const (
	TripInProgress TripStatus = "in_progress"
	TripCompleted  TripStatus = "completed"
	TripAborted    TripStatus = "aborted"
)

// Trip is one tracked driving session from start to end.
type Trip struct {
	ID        string     `json:"id"`
	VehicleID string     `json:"vehicle_id"`
	DriverID  string     `json:"driver_id,omitempty"`
	Status    TripStatus `json:"status"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// PositionSample is one GPS fix belonging to exactly one trip.
// Samples are immutable once recorded and ordered by CapturedAt
// ascending within a trip.
type PositionSample struct {
	TripID     string    `json:"trip_id,omitempty"`
	VehicleID  string    `json:"vehicle_id,omitempty"`
	Location   GeoPoint  `json:"location"`
	SpeedKmh   float64   `json:"speed_kmh"`
	CapturedAt time.Time `json:"captured_at"`
}

// StopInterval is a detected stop: a qualifying contiguous period of
// zero speed. Derived on demand from a trip's sample log, never
// persisted independently.
type StopInterval struct {
	Location  GeoPoint      `json:"location"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// TripSummary holds the derived analytics for one trip.
type TripSummary struct {
	TripID      string         `json:"trip_id"`
	MaxSpeedKmh float64        `json:"max_speed_kmh"`
	AvgSpeedKmh float64        `json:"avg_speed_kmh"`
	SampleCount int            `json:"sample_count"`
	Stops       []StopInterval `json:"stops"`
}

// EventType classifies a security event.
type EventType string

const (
	EventSOS               EventType = "SOS"
	EventGeofenceViolation EventType = "GEOFENCE_VIOLATION"
	EventFatigueAlert      EventType = "FATIGUE_ALERT"
)

// Severity of a security event.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// SecurityEvent is an append-only, hash-sealed record of a
// safety-relevant occurrence. The integrity hash is computed once at
// creation over the canonical fields and never recomputed afterwards;
// it is a tamper-evidence seal, not a cache key.
type SecurityEvent struct {
	ID            string         `json:"id"`
	Type          EventType      `json:"type"`
	Severity      Severity       `json:"severity"`
	VehicleID     string         `json:"vehicle_id,omitempty"`
	GeofenceID    string         `json:"geofence_id,omitempty"`
	Location      *GeoPoint      `json:"location,omitempty"`
	Description   string         `json:"description,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
	IntegrityHash string         `json:"integrity_hash"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// RiskLevel of a geofence zone.
type RiskLevel string

const (
	RiskDanger  RiskLevel = "danger"
	RiskWarning RiskLevel = "warning"
	RiskInfo    RiskLevel = "info"
)

// Geofence is a named polygonal risk zone. Static configuration,
// mutated only by explicit add/update operations.
type Geofence struct {
	ID        string     `json:"id"`
	CompanyID string     `json:"company_id,omitempty"`
	Name      string     `json:"name"`
	RiskLevel RiskLevel  `json:"risk_level"`
	Polygon   []GeoPoint `json:"polygon"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
}

// EventSeverity maps a geofence risk level to the severity of the
// violation event it raises.
func (g *Geofence) EventSeverity() Severity {
	switch g.RiskLevel {
	case RiskDanger:
		return SeverityCritical
	case RiskWarning:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// SafetyReport is the derived fleet safety picture for a reporting
// window. Index is in [0,100]; recomputed per request, never persisted.
type SafetyReport struct {
	Index          int       `json:"index"`
	WindowStart    time.Time `json:"window_start"`
	WindowEnd      time.Time `json:"window_end"`
	EventCount     int       `json:"event_count"`
	Critical24h    int       `json:"critical_24h"`
	ActiveVehicles int       `json:"active_vehicles"`
}
