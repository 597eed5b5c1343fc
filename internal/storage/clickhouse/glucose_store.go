package clickhouse

import (
	"context"
	"fmt"

	"github.com/nightscout/nocturne-sub006/internal/domain"
	"github.com/nightscout/nocturne-sub006/internal/storage"
)

// GlucoseStore implements storage.GlucoseStore using ClickHouse.
type GlucoseStore struct {
	conn *Conn
}

// NewGlucoseStore creates a new GlucoseStore.
func NewGlucoseStore(conn *Conn) *GlucoseStore {
	return &GlucoseStore{conn: conn}
}

// Compile-time interface check.
var _ storage.GlucoseStore = (*GlucoseStore)(nil)

// Insert adds a single reading. Returns ErrDuplicateKey if the ID exists.
// MergeTree does not enforce uniqueness, so the check happens here.
func (s *GlucoseStore) Insert(ctx context.Context, r *domain.GlucoseReading) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO glucose_readings (id, timestamp_ms, value, trend)
		VALUES (?, ?, ?, ?)
	`

	err = s.conn.Exec(ctx, query, r.ID, uint64(r.TimestampMs), r.Value, r.Trend)
	if err != nil {
		return fmt.Errorf("insert glucose reading: %w", err)
	}
	return nil
}

// InsertBulk adds multiple readings. Fails the entire batch on any duplicate ID.
func (s *GlucoseStore) InsertBulk(ctx context.Context, readings []*domain.GlucoseReading) error {
	if len(readings) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{})
	for _, r := range readings {
		if r == nil || r.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, dup := seen[r.ID]; dup {
			return storage.ErrDuplicateKey
		}
		seen[r.ID] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, r := range readings {
		exists, err := s.exists(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO glucose_readings (id, timestamp_ms, value, trend)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range readings {
		err = batch.Append(r.ID, uint64(r.TimestampMs), r.Value, r.Trend)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTimeRange retrieves readings within [start, end] (inclusive), ordered by timestamp ASC.
func (s *GlucoseStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.GlucoseReading, error) {
	query := `
		SELECT id, timestamp_ms, value, trend
		FROM glucose_readings
		WHERE timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, id ASC
	`

	rows, err := s.conn.Query(ctx, query, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanGlucoseReadings(rows)
}

// exists checks if a reading with the given ID exists.
func (s *GlucoseStore) exists(ctx context.Context, id string) (bool, error) {
	query := `
		SELECT count(*) FROM glucose_readings
		WHERE id = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanGlucoseReadings scans multiple rows.
func scanGlucoseReadings(rows chRows) ([]*domain.GlucoseReading, error) {
	var readings []*domain.GlucoseReading

	for rows.Next() {
		var r domain.GlucoseReading
		var timestampMs uint64

		if err := rows.Scan(&r.ID, &timestampMs, &r.Value, &r.Trend); err != nil {
			return nil, fmt.Errorf("scan glucose reading row: %w", err)
		}

		r.TimestampMs = int64(timestampMs)
		readings = append(readings, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate glucose reading rows: %w", err)
	}

	return readings, nil
}
