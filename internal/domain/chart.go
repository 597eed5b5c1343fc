package domain

// MarkerCategory is a UI-facing treatment marker category.
type MarkerCategory string

// Marker categories rendered by the dashboard.
const (
	CategoryBolus        MarkerCategory = "bolus"
	CategoryMicroBolus   MarkerCategory = "micro-bolus"
	CategoryCorrection   MarkerCategory = "correction"
	CategoryCarbs        MarkerCategory = "carbs"
	CategoryGlucoseCheck MarkerCategory = "glucose-check"
	CategoryNote         MarkerCategory = "note"
	CategoryOther        MarkerCategory = "other"
)

// SeriesPoint is one sample of a resampled numeric series (IOB, COB).
type SeriesPoint struct {
	TimestampMs int64   `json:"timestamp"`
	Value       float64 `json:"value"`
}

// CategorizedMarker is a treatment event classified for chart rendering.
type CategorizedMarker struct {
	ID          string         `json:"id"`
	TimestampMs int64          `json:"timestamp"`
	Category    MarkerCategory `json:"category"`
	Amount      float64        `json:"amount"`
}

// DashboardChartData is the complete aggregated chart payload for one
// request. Field names are the wire contract consumed by the dashboard.
// Every slice is non-nil; empty series serialize as empty arrays.
type DashboardChartData struct {
	GlucoseReadings  []*GlucoseReading   `json:"glucoseReadings"`
	IOBSeries        []SeriesPoint       `json:"iobSeries"`
	COBSeries        []SeriesPoint       `json:"cobSeries"`
	BasalSeries      []BasalPoint        `json:"basalSeries"`
	TreatmentMarkers []CategorizedMarker `json:"treatmentMarkers"`
	StateSpans       []StateSpan         `json:"stateSpans"`
	SystemEvents     []*SystemEvent      `json:"systemEvents"`
	TrackerMarkers   []*TrackerMarker    `json:"trackerMarkers"`
}
