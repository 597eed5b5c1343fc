package chart

import (
	"context"
	"io"
	"log"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/nightscout/nocturne-sub006/internal/basal"
	"github.com/nightscout/nocturne-sub006/internal/decay"
	"github.com/nightscout/nocturne-sub006/internal/domain"
	"github.com/nightscout/nocturne-sub006/internal/markers"
	"github.com/nightscout/nocturne-sub006/internal/spans"
	"github.com/nightscout/nocturne-sub006/internal/storage"
	"github.com/nightscout/nocturne-sub006/internal/timegrid"
)

// Options configures an Aggregator. All six stores are required; Config
// and Logger fall back to defaults when zero.
type Options struct {
	Glucose        storage.GlucoseStore
	Treatments     storage.TreatmentStore
	Basal          storage.BasalEventStore
	State          storage.StateIntervalStore
	SystemEvents   storage.SystemEventStore
	TrackerMarkers storage.TrackerMarkerStore

	Config domain.ChartConfig
	Logger *log.Logger
}

// Aggregator assembles the complete dashboard chart payload for a time
// window. It is stateless between requests; the same inputs always produce
// an identical payload.
type Aggregator struct {
	opts Options
}

// New creates an Aggregator from the given options.
func New(opts Options) *Aggregator {
	if opts.Config == (domain.ChartConfig{}) {
		opts.Config = domain.DefaultChartConfig()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	return &Aggregator{opts: opts}
}

// GetChartData fetches all source streams for [startMs, endMs], resamples
// the derived series onto the interval grid and returns the assembled
// payload. Validation happens before any store is touched.
func (a *Aggregator) GetChartData(ctx context.Context, startMs, endMs int64, intervalMinutes int) (*domain.DashboardChartData, error) {
	grid, err := timegrid.Build(startMs, endMs, intervalMinutes)
	if err != nil {
		return nil, err
	}

	cfg := a.opts.Config

	// Doses and basal changes before the window still affect it, so those
	// streams are fetched with extra lookback.
	lookbackStart := startMs - cfg.MaxLookbackMs()

	var (
		glucose        []*domain.GlucoseReading
		treatments     []*domain.TreatmentEvent
		basalEvents    []*domain.BasalEvent
		stateIntervals []*domain.StateInterval
		systemEvents   []*domain.SystemEvent
		trackerMarkers []*domain.TrackerMarker
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		glucose, err = a.opts.Glucose.GetByTimeRange(gctx, startMs, endMs)
		return wrapFetch(gctx, StreamGlucose, err)
	})
	g.Go(func() error {
		var err error
		treatments, err = a.opts.Treatments.GetByTimeRange(gctx, lookbackStart, endMs)
		return wrapFetch(gctx, StreamTreatments, err)
	})
	g.Go(func() error {
		var err error
		basalEvents, err = a.opts.Basal.GetByTimeRange(gctx, lookbackStart, endMs)
		return wrapFetch(gctx, StreamBasal, err)
	})
	g.Go(func() error {
		var err error
		stateIntervals, err = a.opts.State.GetOverlapping(gctx, startMs, endMs)
		return wrapFetch(gctx, StreamState, err)
	})
	g.Go(func() error {
		var err error
		systemEvents, err = a.opts.SystemEvents.GetByTimeRange(gctx, startMs, endMs)
		return wrapFetch(gctx, StreamSystemEvents, err)
	})
	g.Go(func() error {
		var err error
		trackerMarkers, err = a.opts.TrackerMarkers.GetByTimeRange(gctx, startMs, endMs)
		return wrapFetch(gctx, StreamTrackerMarkers, err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Markers show only what happened inside the window; the lookback
	// portion of the treatments list feeds the decay series alone.
	windowTreatments := filterToWindow(treatments, startMs, endMs)

	data := &domain.DashboardChartData{}

	cg, _ := errgroup.WithContext(ctx)
	cg.Go(func() error {
		data.IOBSeries = round2Series(decay.IOBSeries(cfg, treatments, grid))
		return nil
	})
	cg.Go(func() error {
		data.COBSeries = round2Series(decay.COBSeries(cfg, treatments, grid))
		return nil
	})
	cg.Go(func() error {
		data.BasalSeries = basal.Align(basalEvents, grid)
		return nil
	})
	cg.Go(func() error {
		data.StateSpans = spans.Merge(stateIntervals, startMs, endMs)
		return nil
	})
	cg.Go(func() error {
		data.TreatmentMarkers = markers.Categorize(cfg, windowTreatments)
		return nil
	})
	_ = cg.Wait()

	data.GlucoseReadings = nonNilReadings(glucose)
	data.SystemEvents = nonNilEvents(systemEvents)
	data.TrackerMarkers = nonNilMarkers(trackerMarkers)

	return data, nil
}

// wrapFetch attributes a store error to its stream. Context cancellation
// is surfaced as-is so callers can distinguish it from a store failure.
func wrapFetch(ctx context.Context, stream string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &FetchError{Stream: stream, Err: err}
}

func filterToWindow(treatments []*domain.TreatmentEvent, startMs, endMs int64) []*domain.TreatmentEvent {
	filtered := make([]*domain.TreatmentEvent, 0, len(treatments))
	for _, tr := range treatments {
		if tr.TimestampMs >= startMs && tr.TimestampMs <= endMs {
			filtered = append(filtered, tr)
		}
	}
	return filtered
}

// round2Series rounds series values to 2 decimal places for a stable wire
// representation.
func round2Series(series []domain.SeriesPoint) []domain.SeriesPoint {
	for i := range series {
		series[i].Value = math.Round(series[i].Value*100) / 100
	}
	return series
}

func nonNilReadings(readings []*domain.GlucoseReading) []*domain.GlucoseReading {
	if readings == nil {
		return []*domain.GlucoseReading{}
	}
	return readings
}

func nonNilEvents(events []*domain.SystemEvent) []*domain.SystemEvent {
	if events == nil {
		return []*domain.SystemEvent{}
	}
	return events
}

func nonNilMarkers(trackers []*domain.TrackerMarker) []*domain.TrackerMarker {
	if trackers == nil {
		return []*domain.TrackerMarker{}
	}
	return trackers
}
