// Package core holds the plain data structures shared across the tracking
// pipeline. Types here carry no behavior beyond derivation helpers so every
// internal package can depend on them without pulling in heavier concerns.
package core

import (
	"strings"
	"time"
)

// FeedBaseURL is the per-device feed endpoint. The trailing path segment of a
// tracker's share URL identifies the device feed.
const FeedBaseURL = "https://share.garmin.com/Feed/Share/"

// Tracker identifies one pilot's satellite tracking device.
type Tracker struct {
	Name     string `json:"name"`
	Inactive bool   `json:"inactive"`
	ShareURL string `json:"shareUrl"`
}

// FeedURL derives the machine-readable feed endpoint from the share URL.
// It is a pure function of ShareURL: the trailing path segment is appended
// to the feed base. An empty share URL yields an empty feed URL.
func (t Tracker) FeedURL() string {
	trimmed := strings.TrimRight(t.ShareURL, "/")
	if trimmed == "" {
		return ""
	}
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return FeedBaseURL + trimmed
	}
	segment := trimmed[idx+1:]
	if segment == "" {
		return ""
	}
	return FeedBaseURL + segment
}

// TrackPoint is a single position report parsed from a tracker feed.
// Points are immutable once constructed; consumers receive copies.
type TrackPoint struct {
	TrackerName string    `json:"trackerName"`
	DisplayName string    `json:"displayName"`
	Time        time.Time `json:"time"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	SpeedMph    int       `json:"speedMph"`
	AltitudeFt  float64   `json:"altitudeFt"`
	Heading     float64   `json:"heading"`
	InEmergency bool      `json:"inEmergency"`
	Message     string    `json:"message,omitempty"`
}
