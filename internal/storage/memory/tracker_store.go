package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nightscout/nocturne-sub006/internal/domain"
	"github.com/nightscout/nocturne-sub006/internal/storage"
)

// TrackerMarkerStore is an in-memory implementation of storage.TrackerMarkerStore.
type TrackerMarkerStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TrackerMarker // keyed by marker ID
}

// NewTrackerMarkerStore creates a new in-memory tracker marker store.
func NewTrackerMarkerStore() *TrackerMarkerStore {
	return &TrackerMarkerStore{
		data: make(map[string]*domain.TrackerMarker),
	}
}

// Insert adds a new marker. Returns ErrDuplicateKey if exists.
func (s *TrackerMarkerStore) Insert(_ context.Context, m *domain.TrackerMarker) error {
	if m == nil || m.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[m.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *m
	s.data[m.ID] = &copy
	return nil
}

// GetByTimeRange retrieves markers within [start, end] (inclusive), ordered by timestamp ASC.
func (s *TrackerMarkerStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.TrackerMarker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TrackerMarker
	for _, m := range s.data {
		if m.TimestampMs >= start && m.TimestampMs <= end {
			copy := *m
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

var _ storage.TrackerMarkerStore = (*TrackerMarkerStore)(nil)
