package storage

import (
	"encoding/json"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/WasatchCloudBase/livetrack/internal/geo"
	"github.com/WasatchCloudBase/livetrack/pkg/core"
)

// DatabaseModels lists the structs representing tables in the schema
var DatabaseModels = []interface{}{
	&TrackPointRecord{},
}

// TrackPointRecord is the archived form of one track point. The
// position is stored as an EPSG:3857 point so SQLite and Postgres
// round-trip it identically via WKB.
type TrackPointRecord struct {
	gorm.Model

	TrackerName string    `json:"trackerName" gorm:"size:128;index:idx_tracker_time"`
	DisplayName string    `json:"displayName" gorm:"size:192"`
	Time        time.Time `json:"time" gorm:"index:idx_tracker_time"`

	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Position  geom.Point `json:"position"`

	SpeedMph   int     `json:"speedMph"`
	AltitudeFt float64 `json:"altitudeFt"`
	Heading    float64 `json:"heading"`

	// Raw optional fields kept as JSON for ad-hoc queries.
	Extras datatypes.JSON `json:"extras"`
}

func (*TrackPointRecord) TableName() string {
	return "track_points"
}

// recordExtras is the shape serialized into the Extras column.
type recordExtras struct {
	InEmergency bool   `json:"inEmergency"`
	Message     string `json:"message,omitempty"`
}

// recordFromPoint converts a track point into its archive form.
func recordFromPoint(p core.TrackPoint) (TrackPointRecord, error) {
	position, err := geo.Point3857From4326(p.Latitude, p.Longitude, p.AltitudeFt)
	if err != nil {
		return TrackPointRecord{}, err
	}

	extras, err := json.Marshal(recordExtras{
		InEmergency: p.InEmergency,
		Message:     p.Message,
	})
	if err != nil {
		return TrackPointRecord{}, err
	}

	return TrackPointRecord{
		TrackerName: p.TrackerName,
		DisplayName: p.DisplayName,
		Time:        p.Time.UTC(),
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Position:    position,
		SpeedMph:    p.SpeedMph,
		AltitudeFt:  p.AltitudeFt,
		Heading:     p.Heading,
		Extras:      datatypes.JSON(extras),
	}, nil
}

// pointFromRecord converts an archived record back into a track point.
func pointFromRecord(r TrackPointRecord) core.TrackPoint {
	var extras recordExtras
	_ = json.Unmarshal(r.Extras, &extras)

	return core.TrackPoint{
		TrackerName: r.TrackerName,
		DisplayName: r.DisplayName,
		Time:        r.Time.UTC(),
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		SpeedMph:    r.SpeedMph,
		AltitudeFt:  r.AltitudeFt,
		Heading:     r.Heading,
		InEmergency: extras.InEmergency,
		Message:     extras.Message,
	}
}
