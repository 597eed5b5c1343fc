package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nightscout/nocturne-sub006/internal/domain"
	"github.com/nightscout/nocturne-sub006/internal/storage"
)

// TrackerMarkerStore implements storage.TrackerMarkerStore using PostgreSQL.
type TrackerMarkerStore struct {
	pool *Pool
}

// NewTrackerMarkerStore creates a new TrackerMarkerStore.
func NewTrackerMarkerStore(pool *Pool) *TrackerMarkerStore {
	return &TrackerMarkerStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TrackerMarkerStore = (*TrackerMarkerStore)(nil)

// Insert adds a new marker. Returns ErrDuplicateKey if the ID exists.
func (s *TrackerMarkerStore) Insert(ctx context.Context, m *domain.TrackerMarker) error {
	query := `
		INSERT INTO tracker_markers (id, timestamp_ms, tracker_id, kind)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, m.ID, m.TimestampMs, m.TrackerID, m.Kind)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert tracker marker: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves markers within [start, end] (inclusive), ordered by timestamp ASC.
func (s *TrackerMarkerStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TrackerMarker, error) {
	query := `
		SELECT id, timestamp_ms, tracker_id, kind
		FROM tracker_markers
		WHERE timestamp_ms >= $1 AND timestamp_ms <= $2
		ORDER BY timestamp_ms ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get tracker markers by time range: %w", err)
	}
	defer rows.Close()

	return scanTrackerMarkers(rows)
}

// scanTrackerMarkers scans multiple rows into a slice of TrackerMarker.
func scanTrackerMarkers(rows pgx.Rows) ([]*domain.TrackerMarker, error) {
	var markers []*domain.TrackerMarker

	for rows.Next() {
		var m domain.TrackerMarker

		if err := rows.Scan(&m.ID, &m.TimestampMs, &m.TrackerID, &m.Kind); err != nil {
			return nil, fmt.Errorf("scan tracker marker row: %w", err)
		}

		markers = append(markers, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracker marker rows: %w", err)
	}

	return markers, nil
}
