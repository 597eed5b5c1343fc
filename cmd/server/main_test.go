package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nightscout/nocturne-sub006/internal/chart"
	"github.com/nightscout/nocturne-sub006/internal/domain"
	"github.com/nightscout/nocturne-sub006/internal/storage"
	"github.com/nightscout/nocturne-sub006/internal/storage/memory"
)

func newTestServer() (*Server, *allStores) {
	stores := &allStores{
		glucoseStore:       memory.NewGlucoseStore(),
		treatmentStore:     memory.NewTreatmentStore(),
		basalEventStore:    memory.NewBasalEventStore(),
		stateIntervalStore: memory.NewStateIntervalStore(),
		systemEventStore:   memory.NewSystemEventStore(),
		trackerMarkerStore: memory.NewTrackerMarkerStore(),
	}
	server := &Server{
		stores:    stores,
		logger:    log.New(io.Discard, "", 0),
		startTime: time.Now(),
	}
	return server, stores
}

func buildAggregator(stores *allStores) *chart.Aggregator {
	return chart.New(chart.Options{
		Glucose:        stores.glucoseStore,
		Treatments:     stores.treatmentStore,
		Basal:          stores.basalEventStore,
		State:          stores.stateIntervalStore,
		SystemEvents:   stores.systemEventStore,
		TrackerMarkers: stores.trackerMarkerStore,
	})
}

// stalledGlucoseStore never answers before the request context gives up.
type stalledGlucoseStore struct {
	storage.GlucoseStore
}

func (s *stalledGlucoseStore) GetByTimeRange(ctx context.Context, _, _ int64) ([]*domain.GlucoseReading, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestHandleChart_DeadlineIsNotServerError(t *testing.T) {
	server, stores := newTestServer()
	stores.glucoseStore = &stalledGlucoseStore{GlucoseStore: stores.glucoseStore}
	server.aggregator = buildAggregator(stores)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chart?startTime=0&endTime=1800000", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 10*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	server.handleChart(rec, req)

	// Request abandoned silently: no error status, no body.
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())
}

func TestHandleChart_InvalidParams(t *testing.T) {
	server, stores := newTestServer()
	server.aggregator = buildAggregator(stores)

	cases := []string{
		"/api/v1/chart",
		"/api/v1/chart?startTime=0",
		"/api/v1/chart?startTime=abc&endTime=1800000",
		"/api/v1/chart?startTime=1800000&endTime=0",
		"/api/v1/chart?startTime=0&endTime=1800000&intervalMinutes=0",
		"/api/v1/chart?startTime=0&endTime=1800000&intervalMinutes=61",
	}
	for _, target := range cases {
		rec := httptest.NewRecorder()
		server.handleChart(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, "target %s", target)
	}
}
