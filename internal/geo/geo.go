// Package geo converts feed coordinates into archive geometry.
// Archive positions are stored as EPSG:3857 points in WKB so the
// SQLite backend can round-trip them without spatial awareness.
package geo

import (
	"errors"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// ErrInvalidCoordinates is returned when a latitude or longitude is
// outside its valid range.
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ValidLatLon reports whether the pair is a usable WGS84 coordinate.
func ValidLatLon(latitude, longitude float64) bool {
	if latitude < -90 || latitude > 90 {
		return false
	}
	if longitude < -180 || longitude > 180 {
		return false
	}
	return true
}

// Point3857From4326 converts a WGS84 lat/lon pair into a web-mercator
// point with the given elevation.
func Point3857From4326(latitude, longitude, elevation float64) (geom.Point, error) {
	if !ValidLatLon(latitude, longitude) {
		return geom.NewEmptyPoint(geom.DimXYZ), ErrInvalidCoordinates
	}

	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ := f(longitude, latitude, 0)

	point, _ := geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: x, Y: y},
			Z:    elevation,
			Type: geom.CoordinatesType(geom.DimXYZ),
		},
	)
	return point, nil
}
