package domain

// BasalEvent represents a basal rate change: either a scheduled segment
// boundary or a temporary override.
// Corresponds to basal_events table in PostgreSQL.
type BasalEvent struct {
	ID              string  `json:"id"`                        // stable event identifier
	TimestampMs     int64   `json:"timestamp"`                 // Unix timestamp in milliseconds
	Rate            float64 `json:"rate"`                      // basal rate in U/hr
	IsOverride      bool    `json:"isOverride"`                // true for temporary overrides
	DurationMinutes int     `json:"durationMinutes,omitempty"` // override duration; 0 means until superseded
}

// BasalPoint is one sample of the aligned basal step function.
// Unknown is set when no basal event covers the sample timestamp; the rate
// is then 0 but must not be rendered as a real zero rate.
type BasalPoint struct {
	TimestampMs int64   `json:"timestamp"`
	Rate        float64 `json:"rate"`
	Unknown     bool    `json:"unknown,omitempty"`
}
