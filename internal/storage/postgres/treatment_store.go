package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nightscout/nocturne-sub006/internal/domain"
	"github.com/nightscout/nocturne-sub006/internal/storage"
)

// TreatmentStore implements storage.TreatmentStore using PostgreSQL.
type TreatmentStore struct {
	pool *Pool
}

// NewTreatmentStore creates a new TreatmentStore.
func NewTreatmentStore(pool *Pool) *TreatmentStore {
	return &TreatmentStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TreatmentStore = (*TreatmentStore)(nil)

// Insert adds a new treatment event. Returns ErrDuplicateKey if the ID exists.
func (s *TreatmentStore) Insert(ctx context.Context, t *domain.TreatmentEvent) error {
	query := `
		INSERT INTO treatments (id, timestamp_ms, amount, kind)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, t.ID, t.TimestampMs, t.Amount, string(t.Kind))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert treatment: %w", err)
	}
	return nil
}

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *TreatmentStore) InsertBulk(ctx context.Context, events []*domain.TreatmentEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO treatments (id, timestamp_ms, amount, kind)
		VALUES ($1, $2, $3, $4)
	`

	for _, t := range events {
		_, err := tx.Exec(ctx, query, t.ID, t.TimestampMs, t.Amount, string(t.Kind))
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert treatment in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByTimeRange retrieves events within [start, end] (inclusive), ordered by timestamp ASC.
func (s *TreatmentStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TreatmentEvent, error) {
	query := `
		SELECT id, timestamp_ms, amount, kind
		FROM treatments
		WHERE timestamp_ms >= $1 AND timestamp_ms <= $2
		ORDER BY timestamp_ms ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get treatments by time range: %w", err)
	}
	defer rows.Close()

	return scanTreatments(rows)
}

// scanTreatments scans multiple rows into a slice of TreatmentEvent.
func scanTreatments(rows pgx.Rows) ([]*domain.TreatmentEvent, error) {
	var events []*domain.TreatmentEvent

	for rows.Next() {
		var t domain.TreatmentEvent
		var kind string

		if err := rows.Scan(&t.ID, &t.TimestampMs, &t.Amount, &kind); err != nil {
			return nil, fmt.Errorf("scan treatment row: %w", err)
		}
		t.Kind = domain.TreatmentKind(kind)

		events = append(events, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate treatment rows: %w", err)
	}

	return events, nil
}
