package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nightscout/nocturne-sub006/internal/domain"
	"github.com/nightscout/nocturne-sub006/internal/storage"
)

// StateIntervalStore is an in-memory implementation of storage.StateIntervalStore.
type StateIntervalStore struct {
	mu   sync.RWMutex
	data map[string]*domain.StateInterval // keyed by interval ID
}

// NewStateIntervalStore creates a new in-memory state interval store.
func NewStateIntervalStore() *StateIntervalStore {
	return &StateIntervalStore{
		data: make(map[string]*domain.StateInterval),
	}
}

// Insert adds a new interval. Returns ErrDuplicateKey if exists.
func (s *StateIntervalStore) Insert(_ context.Context, iv *domain.StateInterval) error {
	if iv == nil || iv.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[iv.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[iv.ID] = copyInterval(iv)
	return nil
}

// GetOverlapping retrieves intervals overlapping [start, end], ordered by start ASC.
// Open-ended intervals overlap any range at or after their start.
func (s *StateIntervalStore) GetOverlapping(_ context.Context, start, end int64) ([]*domain.StateInterval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.StateInterval
	for _, iv := range s.data {
		if iv.StartMs > end {
			continue
		}
		if iv.EndMs != nil && *iv.EndMs < start {
			continue
		}
		result = append(result, copyInterval(iv))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].StartMs != result[j].StartMs {
			return result[i].StartMs < result[j].StartMs
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// copyInterval deep-copies an interval, including the optional end.
func copyInterval(iv *domain.StateInterval) *domain.StateInterval {
	copy := *iv
	if iv.EndMs != nil {
		end := *iv.EndMs
		copy.EndMs = &end
	}
	return &copy
}

var _ storage.StateIntervalStore = (*StateIntervalStore)(nil)
