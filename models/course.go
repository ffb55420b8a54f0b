package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Course struct {
	ID                   int             `json:"id" db:"id"`
	Name                 string          `json:"name" db:"name"`
	Latitude             float64         `json:"latitude" db:"latitude"`
	Longitude            float64         `json:"longitude" db:"longitude"`
	GeofenceRadiusMeters float64         `json:"geofence_radius_meters" db:"geofence_radius_meters"`
	CourseRating         decimal.Decimal `json:"course_rating" db:"course_rating"`
	SlopeRating          int             `json:"slope_rating" db:"slope_rating"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`

	Holes []Hole `json:"holes,omitempty" db:"-"`
}

type Hole struct {
	ID          int `json:"id" db:"id"`
	CourseID    int `json:"course_id" db:"course_id"`
	Number      int `json:"number" db:"number"`
	Par         int `json:"par" db:"par"`
	StrokeIndex int `json:"stroke_index" db:"stroke_index"`
}

// HoleByNumber returns nil when the course has no such hole.
func (c *Course) HoleByNumber(number int) *Hole {
	for i := range c.Holes {
		if c.Holes[i].Number == number {
			return &c.Holes[i]
		}
	}
	return nil
}
