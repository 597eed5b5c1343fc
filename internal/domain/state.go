package domain

// Known state interval kinds. The merger does not restrict kinds to this
// set; new device states flow through untouched.
const (
	StateSensorWarmup   = "sensor-warmup"
	StateSensorStopped  = "sensor-stopped"
	StatePumpSuspended  = "pump-suspended"
	StateSiteChange     = "site-change"
	StateConnectionLost = "connection-lost"
)

// StateInterval represents a device or system state held over a time range.
// EndMs is nil for intervals still open as of fetch time.
// Corresponds to state_intervals table in PostgreSQL.
type StateInterval struct {
	ID      string `json:"id"`            // stable interval identifier
	StartMs int64  `json:"start"`         // Unix timestamp in milliseconds
	EndMs   *int64 `json:"end,omitempty"` // nil means still active
	Kind    string `json:"kind"`
}

// StateSpan is a closed, merged state interval clipped to the query range.
type StateSpan struct {
	StartMs int64  `json:"start"`
	EndMs   int64  `json:"end"`
	Kind    string `json:"kind"`
}
