package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nightscout/nocturne-sub006/internal/domain"
	"github.com/nightscout/nocturne-sub006/internal/storage"
)

// StateIntervalStore implements storage.StateIntervalStore using PostgreSQL.
type StateIntervalStore struct {
	pool *Pool
}

// NewStateIntervalStore creates a new StateIntervalStore.
func NewStateIntervalStore(pool *Pool) *StateIntervalStore {
	return &StateIntervalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.StateIntervalStore = (*StateIntervalStore)(nil)

// Insert adds a new interval. Returns ErrDuplicateKey if the ID exists.
func (s *StateIntervalStore) Insert(ctx context.Context, iv *domain.StateInterval) error {
	query := `
		INSERT INTO state_intervals (id, start_ms, end_ms, kind)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, iv.ID, iv.StartMs, iv.EndMs, iv.Kind)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert state interval: %w", err)
	}
	return nil
}

// GetOverlapping retrieves intervals overlapping [start, end], including
// open-ended intervals, ordered by start ASC.
func (s *StateIntervalStore) GetOverlapping(ctx context.Context, start, end int64) ([]*domain.StateInterval, error) {
	query := `
		SELECT id, start_ms, end_ms, kind
		FROM state_intervals
		WHERE start_ms <= $2 AND (end_ms IS NULL OR end_ms >= $1)
		ORDER BY start_ms ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get overlapping state intervals: %w", err)
	}
	defer rows.Close()

	return scanStateIntervals(rows)
}

// scanStateIntervals scans multiple rows into a slice of StateInterval.
func scanStateIntervals(rows pgx.Rows) ([]*domain.StateInterval, error) {
	var intervals []*domain.StateInterval

	for rows.Next() {
		var iv domain.StateInterval

		if err := rows.Scan(&iv.ID, &iv.StartMs, &iv.EndMs, &iv.Kind); err != nil {
			return nil, fmt.Errorf("scan state interval row: %w", err)
		}

		intervals = append(intervals, &iv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate state interval rows: %w", err)
	}

	return intervals, nil
}
