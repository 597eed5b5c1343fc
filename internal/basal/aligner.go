// Package basal converts sparse basal rate events into a step function
// sampled at the chart grid.
package basal

import (
	"sort"

	"github.com/nightscout/nocturne-sub006/internal/domain"
)

// Align samples the basal step function at every grid point. The active
// rate at a point is the rate of the latest event at or before it
// (last-event-wins); an override holds only for its duration, after which
// the latest scheduled rate resumes. When two events share a timestamp the
// override wins. A grid point not covered by any event is marked Unknown
// rather than reported as 0 U/hr.
func Align(events []*domain.BasalEvent, grid []int64) []domain.BasalPoint {
	sorted := make([]*domain.BasalEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].TimestampMs != sorted[j].TimestampMs {
			return sorted[i].TimestampMs < sorted[j].TimestampMs
		}
		// Schedule sorts first so the override lands last and wins the sweep.
		if sorted[i].IsOverride != sorted[j].IsOverride {
			return !sorted[i].IsOverride
		}
		return sorted[i].ID < sorted[j].ID
	})

	points := make([]domain.BasalPoint, len(grid))
	var (
		current      *domain.BasalEvent // latest event at or before the grid point
		lastSchedule *domain.BasalEvent // latest scheduled event, resumes after overrides
		idx          int
	)

	for i, t := range grid {
		for idx < len(sorted) && sorted[idx].TimestampMs <= t {
			e := sorted[idx]
			if !e.IsOverride {
				lastSchedule = e
			}
			current = e
			idx++
		}

		points[i] = sample(current, lastSchedule, t)
	}
	return points
}

// sample resolves the rate at t given the latest event and the latest
// scheduled event.
func sample(current, lastSchedule *domain.BasalEvent, t int64) domain.BasalPoint {
	if current == nil {
		return domain.BasalPoint{TimestampMs: t, Unknown: true}
	}

	if current.IsOverride && expired(current, t) {
		if lastSchedule == nil {
			// Override ran out with no schedule underneath it.
			return domain.BasalPoint{TimestampMs: t, Unknown: true}
		}
		return domain.BasalPoint{TimestampMs: t, Rate: lastSchedule.Rate}
	}

	return domain.BasalPoint{TimestampMs: t, Rate: current.Rate}
}

// expired reports whether an override's duration has elapsed at t.
// Overrides without a duration hold until superseded.
func expired(e *domain.BasalEvent, t int64) bool {
	if e.DurationMinutes <= 0 {
		return false
	}
	return t >= e.TimestampMs+int64(e.DurationMinutes)*60_000
}
