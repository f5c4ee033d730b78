// Package cluster reduces dense sets of map markers to a visually
// de-duplicated subset via greedy proximity filtering.
package cluster

import (
	"math"
	"sort"

	"github.com/WasatchCloudBase/livetrack/pkg/core"
)

// DefaultFactor scales the viewport span into a proximity threshold.
const DefaultFactor = 0.1

// Reducer filters station-like annotations that sit too close to an
// already-accepted one. Non-station categories always pass through.
type Reducer struct {
	factor float64
}

// NewReducer creates a reducer with the given span-to-threshold
// factor. A non-positive factor falls back to DefaultFactor.
func NewReducer(factor float64) *Reducer {
	if factor <= 0 {
		factor = DefaultFactor
	}
	return &Reducer{factor: factor}
}

// Reduce returns the subset of items to display for the given
// viewport span. Stations are processed in source-priority order so
// the preferred source wins ties; a station is accepted only if its
// planar distance to every accepted station exceeds the threshold.
// Distances are Euclidean on raw degrees, which is fine for the
// narrow deployment region.
func (r *Reducer) Reduce(items []core.Annotation, span core.Span) []core.Annotation {
	threshold := math.Max(span.LatDelta, span.LonDelta) * r.factor

	var stations []core.Annotation
	var passthrough []core.Annotation
	for _, item := range items {
		if item.Station() {
			stations = append(stations, item)
		} else {
			passthrough = append(passthrough, item)
		}
	}

	// Stable sort keeps the input order within each priority tier so
	// the greedy pass stays deterministic.
	sort.SliceStable(stations, func(i, j int) bool {
		return stations[i].Priority < stations[j].Priority
	})

	var accepted []core.Annotation
	for _, candidate := range stations {
		tooClose := false
		for _, kept := range accepted {
			if distance(candidate, kept) <= threshold {
				tooClose = true
				break
			}
		}
		if !tooClose {
			accepted = append(accepted, candidate)
		}
	}

	out := make([]core.Annotation, 0, len(passthrough)+len(accepted))
	out = append(out, passthrough...)
	out = append(out, accepted...)
	return out
}

func distance(a, b core.Annotation) float64 {
	dLat := a.Latitude - b.Latitude
	dLon := a.Longitude - b.Longitude
	return math.Sqrt(dLat*dLat + dLon*dLon)
}
