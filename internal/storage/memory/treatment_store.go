package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nightscout/nocturne-sub006/internal/domain"
	"github.com/nightscout/nocturne-sub006/internal/storage"
)

// TreatmentStore is an in-memory implementation of storage.TreatmentStore.
type TreatmentStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TreatmentEvent // keyed by event ID
}

// NewTreatmentStore creates a new in-memory treatment store.
func NewTreatmentStore() *TreatmentStore {
	return &TreatmentStore{
		data: make(map[string]*domain.TreatmentEvent),
	}
}

// Insert adds a new treatment event. Returns ErrDuplicateKey if exists.
func (s *TreatmentStore) Insert(_ context.Context, t *domain.TreatmentEvent) error {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *t
	s.data[t.ID] = &copy
	return nil
}

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *TreatmentStore) InsertBulk(_ context.Context, events []*domain.TreatmentEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(events))
	for _, t := range events {
		if t == nil || t.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[t.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[t.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[t.ID] = struct{}{}
	}

	for _, t := range events {
		copy := *t
		s.data[t.ID] = &copy
	}

	return nil
}

// GetByTimeRange retrieves events within [start, end] (inclusive), ordered by timestamp ASC.
func (s *TreatmentStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.TreatmentEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TreatmentEvent
	for _, t := range s.data {
		if t.TimestampMs >= start && t.TimestampMs <= end {
			copy := *t
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

var _ storage.TreatmentStore = (*TreatmentStore)(nil)
