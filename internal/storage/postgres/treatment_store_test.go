package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nightscout/nocturne-sub006/internal/domain"
	"github.com/nightscout/nocturne-sub006/internal/storage"
)

func TestTreatmentStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTreatmentStore(pool)

	events := []*domain.TreatmentEvent{
		{ID: "t1", TimestampMs: 1000, Amount: 4.5, Kind: domain.TreatmentInsulinBolus},
		{ID: "t2", TimestampMs: 2000, Amount: 45, Kind: domain.TreatmentCarbs},
		{ID: "t3", TimestampMs: 3000, Amount: 1, Kind: domain.TreatmentInsulinCorrection},
	}
	require.NoError(t, store.InsertBulk(ctx, events))

	// Duplicate single insert
	err := store.Insert(ctx, events[0])
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Range query is inclusive and ordered
	got, err := store.GetByTimeRange(ctx, 1000, 2000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "t1", got[0].ID)
	require.Equal(t, "t2", got[1].ID)
	require.Equal(t, domain.TreatmentCarbs, got[1].Kind)

	// Duplicate in bulk rolls the batch back
	err = store.InsertBulk(ctx, []*domain.TreatmentEvent{
		{ID: "t4", TimestampMs: 4000, Amount: 2, Kind: domain.TreatmentInsulinBolus},
		{ID: "t1", TimestampMs: 5000, Amount: 2, Kind: domain.TreatmentInsulinBolus},
	})
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err = store.GetByTimeRange(ctx, 4000, 5000)
	require.NoError(t, err)
	require.Empty(t, got, "failed bulk insert must not leave partial rows")
}

func TestStateIntervalStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStateIntervalStore(pool)

	intervals := []*domain.StateInterval{
		{ID: "i1", StartMs: 0, EndMs: ms(500), Kind: domain.StateSensorWarmup},
		{ID: "i2", StartMs: 900, EndMs: nil, Kind: domain.StateSensorWarmup},
		{ID: "i3", StartMs: 5000, EndMs: nil, Kind: domain.StatePumpSuspended},
	}
	for _, iv := range intervals {
		require.NoError(t, store.Insert(ctx, iv))
	}

	got, err := store.GetOverlapping(ctx, 1000, 2000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "i2", got[0].ID)
	require.Nil(t, got[0].EndMs, "open-ended interval must round-trip a NULL end")
}
