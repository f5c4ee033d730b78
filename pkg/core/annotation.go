package core

// Category distinguishes the kinds of map markers the clusterer sees.
type Category string

const (
	CategoryTracker Category = "tracker"
	CategoryStation Category = "station"
	CategorySite    Category = "site"
)

// Station data sources, in tie-break order. When two stations share a
// location the preferred source wins.
const (
	SourcePreferred = 0
	SourceSecondary = 1
)

// Annotation is a geo-tagged map marker. Only station-category annotations
// participate in proximity clustering; trackers and sites always pass
// through.
type Annotation struct {
	Name      string   `json:"name"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Category  Category `json:"category"`
	// Priority orders station sources for tie-breaking; lower wins.
	Priority int `json:"priority"`
}

// Station reports whether the annotation is subject to clustering.
func (a Annotation) Station() bool {
	return a.Category == CategoryStation
}

// Span is the caller's current viewport extent in decimal degrees.
type Span struct {
	LatDelta float64 `json:"latDelta"`
	LonDelta float64 `json:"lonDelta"`
}
