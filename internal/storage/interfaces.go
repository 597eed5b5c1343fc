package storage

import (
	"context"

	"github.com/nightscout/nocturne-sub006/internal/domain"
)

// GlucoseStore provides access to glucose_readings storage.
type GlucoseStore interface {
	// Insert adds a new reading. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, r *domain.GlucoseReading) error

	// InsertBulk adds multiple readings atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, readings []*domain.GlucoseReading) error

	// GetByTimeRange retrieves readings within [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.GlucoseReading, error)
}

// TreatmentStore provides access to treatments storage.
type TreatmentStore interface {
	// Insert adds a new treatment event. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, t *domain.TreatmentEvent) error

	// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, events []*domain.TreatmentEvent) error

	// GetByTimeRange retrieves events within [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TreatmentEvent, error)
}

// BasalEventStore provides access to basal_events storage.
type BasalEventStore interface {
	// Insert adds a new basal event. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, e *domain.BasalEvent) error

	// GetByTimeRange retrieves events within [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.BasalEvent, error)
}

// StateIntervalStore provides access to state_intervals storage.
type StateIntervalStore interface {
	// Insert adds a new interval. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, iv *domain.StateInterval) error

	// GetOverlapping retrieves intervals overlapping [start, end], including
	// intervals that started before start and open-ended intervals, ordered
	// by start ASC.
	GetOverlapping(ctx context.Context, start, end int64) ([]*domain.StateInterval, error)
}

// SystemEventStore provides access to system_events storage.
type SystemEventStore interface {
	// Insert adds a new system event. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, e *domain.SystemEvent) error

	// GetByTimeRange retrieves events within [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SystemEvent, error)
}

// TrackerMarkerStore provides access to tracker_markers storage.
type TrackerMarkerStore interface {
	// Insert adds a new marker. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, m *domain.TrackerMarker) error

	// GetByTimeRange retrieves markers within [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TrackerMarker, error)
}
