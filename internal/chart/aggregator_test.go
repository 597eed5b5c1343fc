package chart

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nightscout/nocturne-sub006/internal/domain"
	"github.com/nightscout/nocturne-sub006/internal/storage"
	"github.com/nightscout/nocturne-sub006/internal/storage/memory"
	"github.com/nightscout/nocturne-sub006/internal/timegrid"
)

func newTestAggregator() (*Aggregator, Options) {
	opts := Options{
		Glucose:        memory.NewGlucoseStore(),
		Treatments:     memory.NewTreatmentStore(),
		Basal:          memory.NewBasalEventStore(),
		State:          memory.NewStateIntervalStore(),
		SystemEvents:   memory.NewSystemEventStore(),
		TrackerMarkers: memory.NewTrackerMarkerStore(),
	}
	return New(opts), opts
}

func TestGetChartData_EmptyStores(t *testing.T) {
	agg, _ := newTestAggregator()
	ctx := context.Background()

	data, err := agg.GetChartData(ctx, 0, 1_800_000, 5)
	require.NoError(t, err)

	// 30-minute window at 5-minute sampling
	require.Len(t, data.IOBSeries, 6)
	require.Len(t, data.COBSeries, 6)
	require.Len(t, data.BasalSeries, 6)
	for i, p := range data.IOBSeries {
		require.Equal(t, int64(i)*300_000, p.TimestampMs)
		require.Zero(t, p.Value)
	}
	for _, p := range data.BasalSeries {
		require.True(t, p.Unknown, "no basal events means unknown rate")
	}

	// Every slice serializes as an array, never null
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "null")
	require.NotNil(t, data.GlucoseReadings)
	require.NotNil(t, data.TreatmentMarkers)
	require.NotNil(t, data.StateSpans)
	require.NotNil(t, data.SystemEvents)
	require.NotNil(t, data.TrackerMarkers)
}

func TestGetChartData_Idempotent(t *testing.T) {
	agg, opts := newTestAggregator()
	ctx := context.Background()

	require.NoError(t, opts.Glucose.Insert(ctx, &domain.GlucoseReading{
		ID: "g1", TimestampMs: 300_000, Value: 112, Trend: domain.TrendFlat,
	}))
	require.NoError(t, opts.Treatments.Insert(ctx, &domain.TreatmentEvent{
		ID: "t1", TimestampMs: 600_000, Amount: 3.5, Kind: domain.TreatmentInsulinBolus,
	}))
	require.NoError(t, opts.Basal.Insert(ctx, &domain.BasalEvent{
		ID: "b1", TimestampMs: 0, Rate: 0.85,
	}))
	require.NoError(t, opts.State.Insert(ctx, &domain.StateInterval{
		ID: "s1", StartMs: 100_000, EndMs: nil, Kind: domain.StateSensorWarmup,
	}))

	first, err := agg.GetChartData(ctx, 0, 1_800_000, 5)
	require.NoError(t, err)
	second, err := agg.GetChartData(ctx, 0, 1_800_000, 5)
	require.NoError(t, err)

	rawFirst, err := json.Marshal(first)
	require.NoError(t, err)
	rawSecond, err := json.Marshal(second)
	require.NoError(t, err)
	require.Equal(t, rawFirst, rawSecond, "same inputs must produce an identical payload")
}

func TestGetChartData_InvalidRequest(t *testing.T) {
	agg, _ := newTestAggregator()
	ctx := context.Background()

	_, err := agg.GetChartData(ctx, 1_800_000, 0, 5)
	require.ErrorIs(t, err, timegrid.ErrInvalidRange)

	_, err = agg.GetChartData(ctx, 0, 0, 5)
	require.ErrorIs(t, err, timegrid.ErrInvalidRange)

	_, err = agg.GetChartData(ctx, 0, 1_800_000, 0)
	require.ErrorIs(t, err, timegrid.ErrInvalidInterval)

	_, err = agg.GetChartData(ctx, 0, 1_800_000, 61)
	require.ErrorIs(t, err, timegrid.ErrInvalidInterval)
}

// failingGlucoseStore fails every read.
type failingGlucoseStore struct {
	storage.GlucoseStore
}

func (s *failingGlucoseStore) GetByTimeRange(_ context.Context, _, _ int64) ([]*domain.GlucoseReading, error) {
	return nil, errors.New("connection refused")
}

func TestGetChartData_FetchFailureNamesStream(t *testing.T) {
	agg, opts := newTestAggregator()
	opts.Glucose = &failingGlucoseStore{GlucoseStore: opts.Glucose}
	agg = New(opts)

	_, err := agg.GetChartData(context.Background(), 0, 1_800_000, 5)
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, StreamGlucose, fetchErr.Stream)
}

// blockingGlucoseStore blocks until the context is canceled.
type blockingGlucoseStore struct {
	storage.GlucoseStore
}

func (s *blockingGlucoseStore) GetByTimeRange(ctx context.Context, _, _ int64) ([]*domain.GlucoseReading, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestGetChartData_Cancellation(t *testing.T) {
	agg, opts := newTestAggregator()
	opts.Glucose = &blockingGlucoseStore{GlucoseStore: opts.Glucose}
	agg = New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := agg.GetChartData(ctx, 0, 1_800_000, 5)
	require.ErrorIs(t, err, context.Canceled)

	var fetchErr *FetchError
	require.False(t, errors.As(err, &fetchErr), "cancellation is not a stream failure")
}

func TestGetChartData_LookbackDoseContributes(t *testing.T) {
	agg, opts := newTestAggregator()
	ctx := context.Background()

	// Bolus one hour before the window, well inside the 5-hour action time
	start := int64(10_000 * 60_000)
	require.NoError(t, opts.Treatments.Insert(ctx, &domain.TreatmentEvent{
		ID: "t1", TimestampMs: start - 60*60_000, Amount: 4, Kind: domain.TreatmentInsulinBolus,
	}))

	data, err := agg.GetChartData(ctx, start, start+1_800_000, 5)
	require.NoError(t, err)

	require.Positive(t, data.IOBSeries[0].Value, "pre-window dose must carry IOB into the window")
	require.Empty(t, data.TreatmentMarkers, "pre-window dose is not a marker")
}

func TestGetChartData_MarkersWindowed(t *testing.T) {
	agg, opts := newTestAggregator()
	ctx := context.Background()

	events := []*domain.TreatmentEvent{
		{ID: "before", TimestampMs: -300_000, Amount: 2, Kind: domain.TreatmentInsulinBolus},
		{ID: "inside", TimestampMs: 600_000, Amount: 45, Kind: domain.TreatmentCarbs},
		{ID: "edge", TimestampMs: 1_800_000, Amount: 0.1, Kind: domain.TreatmentInsulinBolus},
	}
	require.NoError(t, opts.Treatments.InsertBulk(ctx, events))

	data, err := agg.GetChartData(ctx, 0, 1_800_000, 5)
	require.NoError(t, err)

	require.Len(t, data.TreatmentMarkers, 2)
	require.Equal(t, "inside", data.TreatmentMarkers[0].ID)
	require.Equal(t, domain.CategoryCarbs, data.TreatmentMarkers[0].Category)
	require.Equal(t, "edge", data.TreatmentMarkers[1].ID, "window end is inclusive")
	require.Equal(t, domain.CategoryMicroBolus, data.TreatmentMarkers[1].Category)
}

func TestGetChartData_RoundsDerivedSeries(t *testing.T) {
	agg, opts := newTestAggregator()
	ctx := context.Background()

	require.NoError(t, opts.Treatments.Insert(ctx, &domain.TreatmentEvent{
		ID: "t1", TimestampMs: 0, Amount: 3.333, Kind: domain.TreatmentInsulinBolus,
	}))

	data, err := agg.GetChartData(ctx, 0, 1_800_000, 5)
	require.NoError(t, err)

	for _, p := range data.IOBSeries {
		rounded := float64(int64(p.Value*100+0.5)) / 100
		require.InDelta(t, rounded, p.Value, 1e-9, "series values carry at most 2 decimals")
	}
}
