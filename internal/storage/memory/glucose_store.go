package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nightscout/nocturne-sub006/internal/domain"
	"github.com/nightscout/nocturne-sub006/internal/storage"
)

// GlucoseStore is an in-memory implementation of storage.GlucoseStore.
type GlucoseStore struct {
	mu   sync.RWMutex
	data map[string]*domain.GlucoseReading // keyed by reading ID
}

// NewGlucoseStore creates a new in-memory glucose readings store.
func NewGlucoseStore() *GlucoseStore {
	return &GlucoseStore{
		data: make(map[string]*domain.GlucoseReading),
	}
}

// Insert adds a new reading. Returns ErrDuplicateKey if exists.
func (s *GlucoseStore) Insert(_ context.Context, r *domain.GlucoseReading) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	s.data[r.ID] = &copy
	return nil
}

// InsertBulk adds multiple readings atomically. Fails entire batch on any duplicate.
func (s *GlucoseStore) InsertBulk(_ context.Context, readings []*domain.GlucoseReading) error {
	if len(readings) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(readings))
	for _, r := range readings {
		if r == nil || r.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[r.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.ID] = struct{}{}
	}

	for _, r := range readings {
		copy := *r
		s.data[r.ID] = &copy
	}

	return nil
}

// GetByTimeRange retrieves readings within [start, end] (inclusive), ordered by timestamp ASC.
func (s *GlucoseStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.GlucoseReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.GlucoseReading
	for _, r := range s.data {
		if r.TimestampMs >= start && r.TimestampMs <= end {
			copy := *r
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TimestampMs != result[j].TimestampMs {
			return result[i].TimestampMs < result[j].TimestampMs
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

var _ storage.GlucoseStore = (*GlucoseStore)(nil)
