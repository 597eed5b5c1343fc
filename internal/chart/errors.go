package chart

import "fmt"

// Stream names reported in fetch errors and metrics.
const (
	StreamGlucose        = "glucose"
	StreamTreatments     = "treatments"
	StreamBasal          = "basal"
	StreamState          = "state"
	StreamSystemEvents   = "system-events"
	StreamTrackerMarkers = "tracker-markers"
)

// FetchError identifies which source stream failed during aggregation.
type FetchError struct {
	Stream string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s stream: %v", e.Stream, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
