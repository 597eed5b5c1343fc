package domain

// SystemEvent represents a point-in-time system occurrence (pump alarm,
// reservoir change, calibration). Passed through to the chart unmodified,
// only time-filtered.
// Corresponds to system_events table in PostgreSQL.
type SystemEvent struct {
	ID          string `json:"id"`                // stable event identifier
	TimestampMs int64  `json:"timestamp"`         // Unix timestamp in milliseconds
	Kind        string `json:"kind"`
	Payload     string `json:"payload,omitempty"` // opaque event detail
}

// TrackerMarker represents a marker emitted by the external tracker feed.
// Read-only from the chart engine's perspective.
// Corresponds to tracker_markers table in PostgreSQL.
type TrackerMarker struct {
	ID          string `json:"id"`        // stable marker identifier
	TimestampMs int64  `json:"timestamp"` // Unix timestamp in milliseconds
	TrackerID   string `json:"trackerId"` // owning tracker
	Kind        string `json:"kind"`
}
