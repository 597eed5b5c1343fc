// Package decay evaluates insulin-on-board and carbs-on-board at grid
// timestamps from sparse dose events.
//
// Insulin follows the exponential activity curve used by oref-style
// closed-loop systems (peak-time and DIA parameterized); carbs follow a
// linear absorption model after a fixed delay. Values accumulate in full
// float64 precision; display rounding happens at payload assembly.
package decay

import (
	"math"
	"sort"

	"github.com/nightscout/nocturne-sub006/internal/domain"
)

// InsulinRemaining returns the fraction of a dose still active after
// elapsedMinutes. 1.0 at or before the dose, 0 once DIA has elapsed.
func InsulinRemaining(cfg domain.ChartConfig, elapsedMinutes float64) float64 {
	if elapsedMinutes <= 0 {
		return 1.0
	}
	dia := cfg.InsulinActionMinutes
	if elapsedMinutes >= dia {
		return 0.0
	}

	// Bi-exponential activity curve, integrated so remaining(0)=1 and
	// remaining(DIA)=0, strictly positive in between.
	peak := cfg.InsulinPeakMinutes
	tau := peak * (1 - peak/dia) / (1 - 2*peak/dia)
	if tau <= 0 {
		tau = peak * 0.75
	}

	a := 2 * tau / dia
	s := 1 / (1 - a + (1+a)*math.Exp(-dia/tau))

	t := elapsedMinutes
	remaining := 1 - s*(1-a)*((t*t/(tau*dia*(1-a))-t/tau-1)*math.Exp(-t/tau)+1)
	return math.Max(0, math.Min(1, remaining))
}

// CarbsRemaining returns the fraction of a carb entry not yet absorbed
// after elapsedMinutes. Absorption starts after the configured delay and
// completes linearly at the configured absorption duration.
func CarbsRemaining(cfg domain.ChartConfig, elapsedMinutes float64) float64 {
	if elapsedMinutes <= cfg.CarbDelayMinutes {
		if elapsedMinutes < 0 {
			return 0 // entry is in the future
		}
		return 1.0
	}
	if elapsedMinutes >= cfg.CarbAbsorptionMinutes {
		return 0.0
	}

	window := cfg.CarbAbsorptionMinutes - cfg.CarbDelayMinutes
	if window <= 0 {
		return 0.0
	}
	return 1 - (elapsedMinutes-cfg.CarbDelayMinutes)/window
}

// IOBSeries evaluates insulin-on-board at every grid point. Only insulin
// doses at or before a grid point contribute to it; doses fully decayed
// before the first grid point are pruned up front.
func IOBSeries(cfg domain.ChartConfig, treatments []*domain.TreatmentEvent, grid []int64) []domain.SeriesPoint {
	doses := activeDoses(treatments, grid, (*domain.TreatmentEvent).IsInsulin, cfg.InsulinActionMinutes)

	series := make([]domain.SeriesPoint, len(grid))
	for i, t := range grid {
		var total float64
		for _, d := range doses {
			if d.TimestampMs > t {
				break
			}
			elapsed := float64(t-d.TimestampMs) / 60_000
			total += d.Amount * InsulinRemaining(cfg, elapsed)
		}
		series[i] = domain.SeriesPoint{TimestampMs: t, Value: total}
	}
	return series
}

// COBSeries evaluates carbs-on-board at every grid point, same contract
// as IOBSeries.
func COBSeries(cfg domain.ChartConfig, treatments []*domain.TreatmentEvent, grid []int64) []domain.SeriesPoint {
	doses := activeDoses(treatments, grid, (*domain.TreatmentEvent).IsCarb, cfg.CarbAbsorptionMinutes)

	series := make([]domain.SeriesPoint, len(grid))
	for i, t := range grid {
		var total float64
		for _, d := range doses {
			if d.TimestampMs > t {
				break
			}
			elapsed := float64(t-d.TimestampMs) / 60_000
			total += d.Amount * CarbsRemaining(cfg, elapsed)
		}
		series[i] = domain.SeriesPoint{TimestampMs: t, Value: total}
	}
	return series
}

// activeDoses filters treatments to the matching kind, drops doses whose
// action window ended before the first grid point, and returns them in
// timestamp order so the per-point loop can stop at the grid timestamp.
func activeDoses(treatments []*domain.TreatmentEvent, grid []int64, match func(*domain.TreatmentEvent) bool, actionMinutes float64) []*domain.TreatmentEvent {
	if len(grid) == 0 {
		return nil
	}
	cutoff := grid[0] - int64(actionMinutes)*60_000

	doses := make([]*domain.TreatmentEvent, 0, len(treatments))
	for _, tr := range treatments {
		if !match(tr) || tr.Amount <= 0 {
			continue
		}
		if tr.TimestampMs <= cutoff {
			continue
		}
		doses = append(doses, tr)
	}

	sort.Slice(doses, func(i, j int) bool {
		if doses[i].TimestampMs != doses[j].TimestampMs {
			return doses[i].TimestampMs < doses[j].TimestampMs
		}
		return doses[i].ID < doses[j].ID
	})
	return doses
}
