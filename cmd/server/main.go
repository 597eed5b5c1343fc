// Package main provides the dashboard chart data service:
// - Chart API: aggregated, pre-resampled chart payloads per time window
// - Intake API: append-only upload endpoints for readings and events
// - Operational endpoints: health, status, Prometheus metrics
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nightscout/nocturne-sub006/internal/chart"
	"github.com/nightscout/nocturne-sub006/internal/domain"
	"github.com/nightscout/nocturne-sub006/internal/observability"
	"github.com/nightscout/nocturne-sub006/internal/storage"
	chstore "github.com/nightscout/nocturne-sub006/internal/storage/clickhouse"
	"github.com/nightscout/nocturne-sub006/internal/storage/memory"
	"github.com/nightscout/nocturne-sub006/internal/storage/migrations"
	pgstore "github.com/nightscout/nocturne-sub006/internal/storage/postgres"
	"github.com/nightscout/nocturne-sub006/internal/timegrid"
)

const defaultIntervalMinutes = 5

// Server holds all components of the chart data service.
type Server struct {
	aggregator *chart.Aggregator
	stores     *allStores
	logger     *log.Logger

	// State
	mu            sync.Mutex
	startTime     time.Time
	chartRequests int
	intakeEvents  int
}

// allStores holds all storage implementations.
type allStores struct {
	glucoseStore       storage.GlucoseStore
	treatmentStore     storage.TreatmentStore
	basalEventStore    storage.BasalEventStore
	stateIntervalStore storage.StateIntervalStore
	systemEventStore   storage.SystemEventStore
	trackerMarkerStore storage.TrackerMarkerStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", ":8080", "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	aggregator := chart.New(chart.Options{
		Glucose:        stores.glucoseStore,
		Treatments:     stores.treatmentStore,
		Basal:          stores.basalEventStore,
		State:          stores.stateIntervalStore,
		SystemEvents:   stores.systemEventStore,
		TrackerMarkers: stores.trackerMarkerStore,
		Config:         domain.DefaultChartConfig(),
		Logger:         logger,
	})

	server := &Server{
		aggregator: aggregator,
		stores:     stores,
		logger:     logger,
		startTime:  time.Now(),
	}

	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: server.routes(),
	}

	// Uptime counter for /metrics
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.DefaultMetrics.UptimeSeconds.Inc()
			}
		}
	}()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-shutdownCtx.Done():
		}
	}()

	logger.Printf("Starting HTTP server on %s", *listenAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("HTTP server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores and applies migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			glucoseStore:       memory.NewGlucoseStore(),
			treatmentStore:     memory.NewTreatmentStore(),
			basalEventStore:    memory.NewBasalEventStore(),
			stateIntervalStore: memory.NewStateIntervalStore(),
			systemEventStore:   memory.NewSystemEventStore(),
			trackerMarkerStore: memory.NewTrackerMarkerStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	// ClickHouse
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
	}

	stores := &allStores{
		// ClickHouse store (high-volume sensor data)
		glucoseStore: chstore.NewGlucoseStore(chConn),

		// PostgreSQL stores (events and intervals)
		treatmentStore:     pgstore.NewTreatmentStore(pool),
		basalEventStore:    pgstore.NewBasalEventStore(pool),
		stateIntervalStore: pgstore.NewStateIntervalStore(pool),
		systemEventStore:   pgstore.NewSystemEventStore(pool),
		trackerMarkerStore: pgstore.NewTrackerMarkerStore(pool),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// routes builds the HTTP mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/chart", s.handleChart)
	mux.HandleFunc("/api/v1/entries", s.handleEntries)
	mux.HandleFunc("/api/v1/treatments", s.handleTreatments)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	return mux
}

// handleChart serves the aggregated chart payload for a time window.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()

	startMs, err := parseInt64Param(r, "startTime")
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		observability.RecordChartRequest("bad_request", time.Since(start).Seconds())
		return
	}
	endMs, err := parseInt64Param(r, "endTime")
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		observability.RecordChartRequest("bad_request", time.Since(start).Seconds())
		return
	}

	intervalMinutes := defaultIntervalMinutes
	if raw := r.URL.Query().Get("intervalMinutes"); raw != "" {
		intervalMinutes, err = strconv.Atoi(raw)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid intervalMinutes")
			observability.RecordChartRequest("bad_request", time.Since(start).Seconds())
			return
		}
	}

	data, err := s.aggregator.GetChartData(r.Context(), startMs, endMs, intervalMinutes)
	if err != nil {
		switch {
		case errors.Is(err, timegrid.ErrInvalidRange) || errors.Is(err, timegrid.ErrInvalidInterval):
			httpError(w, http.StatusBadRequest, err.Error())
			observability.RecordChartRequest("bad_request", time.Since(start).Seconds())
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			// Client went away, nothing to write
			observability.RecordChartRequest("canceled", time.Since(start).Seconds())
		default:
			var fetchErr *chart.FetchError
			if errors.As(err, &fetchErr) {
				observability.RecordFetchError(fetchErr.Stream)
			}
			s.logger.Printf("Chart request failed: %v", err)
			httpError(w, http.StatusInternalServerError, "internal error")
			observability.RecordChartRequest("error", time.Since(start).Seconds())
		}
		return
	}

	s.mu.Lock()
	s.chartRequests++
	s.mu.Unlock()

	observability.RecordChartRequest("ok", time.Since(start).Seconds())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// handleEntries accepts a JSON array of glucose readings. Re-uploading
// already stored readings is not an error, uploaders retry freely.
func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var readings []*domain.GlucoseReading
	if err := json.NewDecoder(r.Body).Decode(&readings); err != nil {
		observability.RecordIntakeError("glucose")
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	accepted := 0
	for _, reading := range readings {
		err := s.stores.glucoseStore.Insert(r.Context(), reading)
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, storage.ErrDuplicateKey):
			// Already stored, idempotent re-upload
		case errors.Is(err, storage.ErrInvalidInput):
			observability.RecordIntakeError("glucose")
			httpError(w, http.StatusBadRequest, "reading missing id")
			return
		default:
			s.logger.Printf("Insert glucose reading failed: %v", err)
			observability.RecordIntakeError("glucose")
			httpError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	s.recordIntake("glucose", accepted)
	writeAccepted(w, accepted)
}

// handleTreatments accepts a JSON array of treatment events.
func (s *Server) handleTreatments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var events []*domain.TreatmentEvent
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		observability.RecordIntakeError("treatment")
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	accepted := 0
	for _, event := range events {
		err := s.stores.treatmentStore.Insert(r.Context(), event)
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, storage.ErrDuplicateKey):
			// Already stored, idempotent re-upload
		case errors.Is(err, storage.ErrInvalidInput):
			observability.RecordIntakeError("treatment")
			httpError(w, http.StatusBadRequest, "event missing id")
			return
		default:
			s.logger.Printf("Insert treatment failed: %v", err)
			observability.RecordIntakeError("treatment")
			httpError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	s.recordIntake("treatment", accepted)
	writeAccepted(w, accepted)
}

func (s *Server) recordIntake(entity string, accepted int) {
	s.mu.Lock()
	s.intakeEvents += accepted
	s.mu.Unlock()

	for i := 0; i < accepted; i++ {
		observability.RecordIntakeEvent(entity)
	}
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status        string    `json:"status"`
	Uptime        string    `json:"uptime"`
	Started       time.Time `json:"started"`
	ChartRequests int       `json:"chart_requests"`
	IntakeEvents  int       `json:"intake_events"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:        "running",
		Uptime:        time.Since(s.startTime).String(),
		Started:       s.startTime,
		ChartRequests: s.chartRequests,
		IntakeEvents:  s.intakeEvents,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func parseInt64Param(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing required parameter %s", name)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be a millisecond timestamp", name)
	}
	return v, nil
}

func httpError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeAccepted(w http.ResponseWriter, accepted int) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"accepted": accepted})
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
