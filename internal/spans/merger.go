// Package spans reduces overlapping state intervals to a minimal
// non-overlapping span set clipped to the query range.
package spans

import (
	"sort"

	"github.com/nightscout/nocturne-sub006/internal/domain"
)

// Merge clips every interval to [queryStartMs, queryEndMs], treats an
// absent end as still open (clipped to queryEndMs), and merges
// overlapping or adjacent intervals of the same kind. Zero-width spans
// are preserved; intervals entirely outside the range are dropped.
// Output is sorted by start, kind as tiebreak.
func Merge(intervals []*domain.StateInterval, queryStartMs, queryEndMs int64) []domain.StateSpan {
	clipped := make([]domain.StateSpan, 0, len(intervals))
	for _, iv := range intervals {
		end := queryEndMs
		if iv.EndMs != nil && *iv.EndMs < end {
			end = *iv.EndMs
		}
		start := iv.StartMs
		if start < queryStartMs {
			start = queryStartMs
		}
		if end > queryEndMs {
			end = queryEndMs
		}
		if end < start {
			continue // entirely outside the query range
		}
		clipped = append(clipped, domain.StateSpan{StartMs: start, EndMs: end, Kind: iv.Kind})
	}

	// Group by kind, sweep each group independently.
	byKind := make(map[string][]domain.StateSpan)
	for _, s := range clipped {
		byKind[s.Kind] = append(byKind[s.Kind], s)
	}

	merged := make([]domain.StateSpan, 0, len(clipped))
	for _, group := range byKind {
		merged = append(merged, sweep(group)...)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].StartMs != merged[j].StartMs {
			return merged[i].StartMs < merged[j].StartMs
		}
		if merged[i].Kind != merged[j].Kind {
			return merged[i].Kind < merged[j].Kind
		}
		return merged[i].EndMs < merged[j].EndMs
	})
	return merged
}

// sweep merges one kind's sorted spans, folding a span into the running
// one while its start does not pass the running end (adjacency counts).
func sweep(group []domain.StateSpan) []domain.StateSpan {
	sort.Slice(group, func(i, j int) bool {
		if group[i].StartMs != group[j].StartMs {
			return group[i].StartMs < group[j].StartMs
		}
		return group[i].EndMs < group[j].EndMs
	})

	out := make([]domain.StateSpan, 0, len(group))
	current := group[0]
	for _, s := range group[1:] {
		if s.StartMs <= current.EndMs {
			if s.EndMs > current.EndMs {
				current.EndMs = s.EndMs
			}
			continue
		}
		out = append(out, current)
		current = s
	}
	return append(out, current)
}
