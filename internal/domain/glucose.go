package domain

// GlucoseReading represents a single CGM sensor reading.
// Corresponds to glucose_readings table in ClickHouse.
type GlucoseReading struct {
	ID          string  `json:"id"`                       // stable reading identifier
	TimestampMs int64   `json:"timestamp"`                // Unix timestamp in milliseconds
	Value       float64 `json:"value"`                    // glucose value in mg/dL
	Trend       string  `json:"trendDirection,omitempty"` // sensor trend arrow, empty if not reported
}

// Trend direction values as reported by CGM sensors.
const (
	TrendFlat          = "Flat"
	TrendFortyFiveUp   = "FortyFiveUp"
	TrendFortyFiveDown = "FortyFiveDown"
	TrendSingleUp      = "SingleUp"
	TrendSingleDown    = "SingleDown"
	TrendDoubleUp      = "DoubleUp"
	TrendDoubleDown    = "DoubleDown"
)
