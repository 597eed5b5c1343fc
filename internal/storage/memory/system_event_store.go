package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nightscout/nocturne-sub006/internal/domain"
	"github.com/nightscout/nocturne-sub006/internal/storage"
)

// SystemEventStore is an in-memory implementation of storage.SystemEventStore.
type SystemEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SystemEvent // keyed by event ID
}

// NewSystemEventStore creates a new in-memory system event store.
func NewSystemEventStore() *SystemEventStore {
	return &SystemEventStore{
		data: make(map[string]*domain.SystemEvent),
	}
}

// Insert adds a new system event. Returns ErrDuplicateKey if exists.
func (s *SystemEventStore) Insert(_ context.Context, e *domain.SystemEvent) error {
	if e == nil || e.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *e
	s.data[e.ID] = &copy
	return nil
}

// GetByTimeRange retrieves events within [start, end] (inclusive), ordered by timestamp ASC.
func (s *SystemEventStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.SystemEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SystemEvent
	for _, e := range s.data {
		if e.TimestampMs >= start && e.TimestampMs <= end {
			copy := *e
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

var _ storage.SystemEventStore = (*SystemEventStore)(nil)
