// Package parser converts raw feed markup into typed track points.
// Feeds are variably well-formed, so records are located by scanning
// for matched delimiters instead of running a full XML parser; a
// record that cannot be salvaged is dropped, never fatal.
package parser

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/WasatchCloudBase/livetrack/pkg/core"
)

// timeLayout is the fixed timestamp format used by the feed provider.
const timeLayout = "1/2/2006 3:04:05 PM"

const (
	kmhToMph     = 0.621371
	metersToFeet = 3.28084
)

// Clock supplies the current time. Injected so the unparseable
// timestamp fallback is deterministic under test.
type Clock func() time.Time

// Parser extracts track points from feed markup documents.
type Parser struct {
	log *slog.Logger
	now Clock
}

// New creates a parser. A nil clock falls back to time.Now.
func New(log *slog.Logger, now Clock) *Parser {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &Parser{log: log, now: now}
}

// Parse extracts all track points from body for the named tracker.
// Points are returned in feed order. Records missing any of the name,
// timestamp, latitude or longitude fields are dropped.
func (p *Parser) Parse(body []byte, trackerName string) []core.TrackPoint {
	doc := string(body)
	points := make([]core.TrackPoint, 0)

	for _, record := range extractAll(doc, "<Placemark", "</Placemark>") {
		point, ok := p.parseRecord(record, trackerName)
		if !ok {
			continue
		}
		points = append(points, point)
	}

	if len(points) == 0 {
		p.log.Debug("No track points in feed", "tracker", trackerName, "bytes", len(body))
	}
	return points
}

// parseRecord builds one TrackPoint from a Placemark record body.
func (p *Parser) parseRecord(record string, trackerName string) (core.TrackPoint, bool) {
	name, okName := dataValue(record, "Name")
	timeStr, okTime := dataValue(record, "Time UTC")
	latStr, okLat := dataValue(record, "Latitude")
	lonStr, okLon := dataValue(record, "Longitude")
	if !okName || !okTime || !okLat || !okLon {
		return core.TrackPoint{}, false
	}

	lat, errLat := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if errLat != nil || errLon != nil {
		return core.TrackPoint{}, false
	}

	ts, err := time.ParseInLocation(timeLayout, strings.TrimSpace(timeStr), time.UTC)
	if err != nil {
		// The provider occasionally emits timestamps the layout cannot
		// handle; the record is kept and placed at the current time.
		p.log.Warn("Unparseable feed timestamp", "tracker", trackerName, "value", timeStr)
		ts = p.now().UTC()
	}

	point := core.TrackPoint{
		TrackerName: trackerName,
		DisplayName: displayName(name, trackerName),
		Time:        ts,
		Latitude:    lat,
		Longitude:   lon,
	}

	if v, ok := dataValue(record, "Velocity"); ok {
		point.SpeedMph = int(math.Round(leadingFloat(v) * kmhToMph))
	}
	if v, ok := dataValue(record, "Elevation"); ok {
		point.AltitudeFt = leadingFloat(v) * metersToFeet
	}
	if v, ok := dataValue(record, "Course"); ok {
		point.Heading = leadingFloat(v)
	}
	if v, ok := dataValue(record, "In Emergency"); ok {
		point.InEmergency = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if v, ok := dataValue(record, "Text"); ok {
		point.Message = strings.TrimSpace(v)
	}

	return point, true
}

// displayName disambiguates a feed-embedded name that differs from the
// owning tracker's name.
func displayName(embedded, tracker string) string {
	embedded = strings.TrimSpace(embedded)
	if strings.EqualFold(embedded, tracker) {
		return embedded
	}
	return embedded + " (" + tracker + ")"
}

// extractAll returns the content between each open/close delimiter
// pair, scanning left to right. Unclosed trailing fragments are
// ignored.
func extractAll(doc, open, close string) []string {
	var out []string
	for {
		start := strings.Index(doc, open)
		if start < 0 {
			return out
		}
		doc = doc[start+len(open):]
		end := strings.Index(doc, close)
		if end < 0 {
			return out
		}
		out = append(out, doc[:end])
		doc = doc[end+len(close):]
	}
}

// dataValue extracts the <value> content of a <Data name="X"> element.
func dataValue(record, name string) (string, bool) {
	marker := `<Data name="` + name + `"`
	start := strings.Index(record, marker)
	if start < 0 {
		return "", false
	}
	rest := record[start+len(marker):]

	end := strings.Index(rest, "</Data>")
	if end < 0 {
		return "", false
	}
	element := rest[:end]

	vStart := strings.Index(element, "<value>")
	if vStart < 0 {
		return "", false
	}
	element = element[vStart+len("<value>"):]
	vEnd := strings.Index(element, "</value>")
	if vEnd < 0 {
		return "", false
	}
	return element[:vEnd], true
}

// leadingFloat extracts the numeric prefix of a unit-suffixed string,
// e.g. "12.3 km/h" yields 12.3. Returns 0 when no prefix exists.
func leadingFloat(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || (end == 0 && (c == '-' || c == '+')) {
			end++
			continue
		}
		break
	}
	if end == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return f
}
