package ingest

import (
	"time"

	"github.com/urbanflow-data/trajectory.report/internal/trace"
)

// Prefilters narrow the raw dataset before the cleaning pipeline runs.
// They are deliberately outside the core: the pipeline itself only ever
// filters on derived speed.

// FilterByDates keeps points whose calendar date (UTC) appears in dates.
// An empty date list means no filtering. Points without a timestamp cannot
// match an active filter and are dropped by it.
func FilterByDates(points []trace.Point, dates []time.Time) []trace.Point {
	if len(dates) == 0 {
		return points
	}

	wanted := make(map[string]bool, len(dates))
	for _, d := range dates {
		wanted[d.UTC().Format("2006-01-02")] = true
	}

	kept := make([]trace.Point, 0, len(points))
	for _, p := range points {
		if p.Time == nil {
			continue
		}
		if wanted[p.Time.UTC().Format("2006-01-02")] {
			kept = append(kept, p)
		}
	}
	return kept
}

// FilterByHours keeps points whose hour of day falls in [start, end].
// The full range (0, 23) means no filtering; end == 23 leaves the upper
// bound open so late-night points are never cut off by the inclusive
// comparison. Points without a timestamp are dropped by an active filter.
func FilterByHours(points []trace.Point, start, end int) []trace.Point {
	if start == 0 && end == 23 {
		return points
	}

	kept := make([]trace.Point, 0, len(points))
	for _, p := range points {
		if p.Time == nil {
			continue
		}
		h := p.Time.Hour()
		if h < start {
			continue
		}
		if end != 23 && h > end {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}
