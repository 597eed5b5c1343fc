// Package timegrid builds the fixed-cadence sample grid all chart series
// are resampled onto.
package timegrid

import "errors"

// Validation errors detected before any data is fetched.
var (
	ErrInvalidRange    = errors.New("invalid range: end must be after start")
	ErrInvalidInterval = errors.New("invalid interval: must be between 1 and 60 minutes")
)

// Interval bounds accepted by Build (in minutes).
const (
	MinIntervalMinutes = 1
	MaxIntervalMinutes = 60
)

// Build returns the ordered sample timestamps for the window, spaced
// intervalMinutes apart starting at startMs. Points run up to but not
// including endMs; no right-edge point is forced. Deterministic, pure.
func Build(startMs, endMs int64, intervalMinutes int) ([]int64, error) {
	if endMs <= startMs {
		return nil, ErrInvalidRange
	}
	if intervalMinutes < MinIntervalMinutes || intervalMinutes > MaxIntervalMinutes {
		return nil, ErrInvalidInterval
	}

	step := int64(intervalMinutes) * 60_000
	grid := make([]int64, 0, (endMs-startMs)/step+1)
	for t := startMs; t < endMs; t += step {
		grid = append(grid, t)
	}
	return grid, nil
}
