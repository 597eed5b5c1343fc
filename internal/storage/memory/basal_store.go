package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nightscout/nocturne-sub006/internal/domain"
	"github.com/nightscout/nocturne-sub006/internal/storage"
)

// BasalEventStore is an in-memory implementation of storage.BasalEventStore.
type BasalEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BasalEvent // keyed by event ID
}

// NewBasalEventStore creates a new in-memory basal event store.
func NewBasalEventStore() *BasalEventStore {
	return &BasalEventStore{
		data: make(map[string]*domain.BasalEvent),
	}
}

// Insert adds a new basal event. Returns ErrDuplicateKey if exists.
func (s *BasalEventStore) Insert(_ context.Context, e *domain.BasalEvent) error {
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
func (s *BasalEventStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.BasalEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BasalEvent
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

var _ storage.BasalEventStore = (*BasalEventStore)(nil)
