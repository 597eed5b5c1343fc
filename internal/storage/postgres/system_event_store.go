package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nightscout/nocturne-sub006/internal/domain"
	"github.com/nightscout/nocturne-sub006/internal/storage"
)

// SystemEventStore implements storage.SystemEventStore using PostgreSQL.
type SystemEventStore struct {
	pool *Pool
}

// NewSystemEventStore creates a new SystemEventStore.
func NewSystemEventStore(pool *Pool) *SystemEventStore {
	return &SystemEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SystemEventStore = (*SystemEventStore)(nil)

// Insert adds a new system event. Returns ErrDuplicateKey if the ID exists.
func (s *SystemEventStore) Insert(ctx context.Context, e *domain.SystemEvent) error {
	query := `
		INSERT INTO system_events (id, timestamp_ms, kind, payload)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, e.ID, e.TimestampMs, e.Kind, e.Payload)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert system event: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves events within [start, end] (inclusive), ordered by timestamp ASC.
func (s *SystemEventStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SystemEvent, error) {
	query := `
		SELECT id, timestamp_ms, kind, payload
		FROM system_events
		WHERE timestamp_ms >= $1 AND timestamp_ms <= $2
		ORDER BY timestamp_ms ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get system events by time range: %w", err)
	}
	defer rows.Close()

	return scanSystemEvents(rows)
}

// scanSystemEvents scans multiple rows into a slice of SystemEvent.
func scanSystemEvents(rows pgx.Rows) ([]*domain.SystemEvent, error) {
	var events []*domain.SystemEvent

	for rows.Next() {
		var e domain.SystemEvent

		if err := rows.Scan(&e.ID, &e.TimestampMs, &e.Kind, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan system event row: %w", err)
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate system event rows: %w", err)
	}

	return events, nil
}
