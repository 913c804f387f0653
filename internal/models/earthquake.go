package models

import (
	"time"

	"github.com/paulmach/orb"
)

type Earthquake struct {
	ID        string    // Event ID from the feed (e.g., "ci39493944")
	Place     string    // Human readable location, e.g. "10km SSW of Idyllwild, CA"
	Time      time.Time // when the event occurred
	Magnitude float64
	Longitude float64
	Latitude  float64
	Depth     float64 // km below the surface
}

// Point returns the epicenter in [lon, lat] order.
func (e *Earthquake) Point() orb.Point {
	return orb.Point{e.Longitude, e.Latitude}
}
