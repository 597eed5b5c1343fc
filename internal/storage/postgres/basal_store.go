package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nightscout/nocturne-sub006/internal/domain"
	"github.com/nightscout/nocturne-sub006/internal/storage"
)

// BasalEventStore implements storage.BasalEventStore using PostgreSQL.
type BasalEventStore struct {
	pool *Pool
}

// NewBasalEventStore creates a new BasalEventStore.
func NewBasalEventStore(pool *Pool) *BasalEventStore {
	return &BasalEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BasalEventStore = (*BasalEventStore)(nil)

// Insert adds a new basal event. Returns ErrDuplicateKey if the ID exists.
func (s *BasalEventStore) Insert(ctx context.Context, e *domain.BasalEvent) error {
	query := `
		INSERT INTO basal_events (id, timestamp_ms, rate, is_override, duration_minutes)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query, e.ID, e.TimestampMs, e.Rate, e.IsOverride, e.DurationMinutes)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert basal event: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves events within [start, end] (inclusive), ordered by timestamp ASC.
func (s *BasalEventStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.BasalEvent, error) {
	query := `
		SELECT id, timestamp_ms, rate, is_override, duration_minutes
		FROM basal_events
		WHERE timestamp_ms >= $1 AND timestamp_ms <= $2
		ORDER BY timestamp_ms ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get basal events by time range: %w", err)
	}
	defer rows.Close()

	return scanBasalEvents(rows)
}

// scanBasalEvents scans multiple rows into a slice of BasalEvent.
func scanBasalEvents(rows pgx.Rows) ([]*domain.BasalEvent, error) {
	var events []*domain.BasalEvent

	for rows.Next() {
		var e domain.BasalEvent

		if err := rows.Scan(&e.ID, &e.TimestampMs, &e.Rate, &e.IsOverride, &e.DurationMinutes); err != nil {
			return nil, fmt.Errorf("scan basal event row: %w", err)
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate basal event rows: %w", err)
	}

	return events, nil
}
