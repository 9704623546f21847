package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Data freshness
	MetricPositionLatency = "realtime.position_latency"
	MetricSampleAge       = "realtime.sample_age_seconds"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricSOSEvents          = "business.sos_events"
	MetricGeofenceViolations = "business.geofence_violations"
)
