// Package markers classifies treatment events into UI-facing chart
// categories.
package markers

import (
	"sort"

	"github.com/nightscout/nocturne-sub006/internal/domain"
)

// Categorize maps every treatment event to a marker category. The mapping
// is total: an unrecognized kind becomes CategoryOther instead of being
// dropped. Events sharing an ID are deduplicated keeping the occurrence
// fetched last. Output is sorted by timestamp, ID as tiebreak.
func Categorize(cfg domain.ChartConfig, treatments []*domain.TreatmentEvent) []domain.CategorizedMarker {
	// Last occurrence wins; sources can re-send an event across
	// pagination boundaries.
	deduped := make(map[string]*domain.TreatmentEvent, len(treatments))
	for _, tr := range treatments {
		deduped[tr.ID] = tr
	}

	out := make([]domain.CategorizedMarker, 0, len(deduped))
	for _, tr := range deduped {
		out = append(out, domain.CategorizedMarker{
			ID:          tr.ID,
			TimestampMs: tr.TimestampMs,
			Category:    categoryFor(cfg, tr),
			Amount:      tr.Amount,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TimestampMs != out[j].TimestampMs {
			return out[i].TimestampMs < out[j].TimestampMs
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// categoryFor resolves a single event's category.
func categoryFor(cfg domain.ChartConfig, tr *domain.TreatmentEvent) domain.MarkerCategory {
	switch tr.Kind {
	case domain.TreatmentInsulinBolus:
		if tr.Amount > 0 && tr.Amount < cfg.MicroBolusThreshold {
			return domain.CategoryMicroBolus
		}
		return domain.CategoryBolus
	case domain.TreatmentInsulinCorrection:
		return domain.CategoryCorrection
	case domain.TreatmentCarbs:
		return domain.CategoryCarbs
	case domain.TreatmentGlucoseCheck:
		return domain.CategoryGlucoseCheck
	case domain.TreatmentNote:
		return domain.CategoryNote
	default:
		return domain.CategoryOther
	}
}
