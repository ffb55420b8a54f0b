// Package geo answers "was this device at the course" questions.
package geo

import (
	"github.com/umahmood/haversine"
)

const metersPerKilometer = 1000.0

type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geofence is a circle around a course center.
type Geofence struct {
	Center       Point
	RadiusMeters float64
}

// NewPoint returns nil unless both coordinates are present.
func NewPoint(lat, lon *float64) *Point {
	if lat == nil || lon == nil {
		return nil
	}
	return &Point{Latitude: *lat, Longitude: *lon}
}

func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// DistanceMeters is the great-circle distance between a and b.
func DistanceMeters(a, b Point) float64 {
	_, km := haversine.Distance(
		haversine.Coord{Lat: a.Latitude, Lon: a.Longitude},
		haversine.Coord{Lat: b.Latitude, Lon: b.Longitude},
	)
	return km * metersPerKilometer
}

// Contains reports whether p lies within the fence scaled by factor.
// A nil or out-of-range point is never contained.
func (g Geofence) Contains(p *Point, factor float64) bool {
	if p == nil || !p.Valid() || g.RadiusMeters <= 0 {
		return false
	}
	if factor <= 0 {
		factor = 1
	}
	return DistanceMeters(g.Center, *p) <= g.RadiusMeters*factor
}

func Within(center Point, radiusMeters float64, p *Point) bool {
	return Geofence{Center: center, RadiusMeters: radiusMeters}.Contains(p, 1)
}
