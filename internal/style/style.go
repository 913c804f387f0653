// Package style holds the visual encodings shared by map markers and the legend.
package style

import "math"

// RadiusScale is the number of pixels of marker radius per unit of magnitude.
const RadiusScale = 8.0

// DepthBucket is one step of the depth ladder. A depth belongs to the highest
// bucket whose Min it strictly exceeds; the first bucket catches everything else.
type DepthBucket struct {
	Min     float64
	Color   string
	Opacity float64
}

// DepthBuckets is ordered from shallowest to deepest.
var DepthBuckets = []DepthBucket{
	{Min: 0, Color: "#00FF00", Opacity: 0.1},
	{Min: 10, Color: "#00FA9A", Opacity: 0.2},
	{Min: 30, Color: "#7FFFD4", Opacity: 0.4},
	{Min: 50, Color: "#6495ED", Opacity: 0.6},
	{Min: 70, Color: "#1E90FF", Opacity: 0.8},
	{Min: 90, Color: "#0000FF", Opacity: 1.0},
}

// MagnitudeSteps are the magnitudes sampled by the legend.
var MagnitudeSteps = []float64{1, 2, 3, 4, 5}

// ForDepth returns the bucket for depth in km. Boundary values fall into the
// lower bucket, so ForDepth(10) is the shallowest one.
func ForDepth(depth float64) DepthBucket {
	for i := len(DepthBuckets) - 1; i > 0; i-- {
		if depth > DepthBuckets[i].Min {
			return DepthBuckets[i]
		}
	}
	return DepthBuckets[0]
}

// Radius returns the marker radius in pixels for a magnitude, magnitude*8.
// Unlike a plain linear scale it clamps negative magnitudes (common for tiny
// local events) to 0.
func Radius(magnitude float64) float64 {
	return math.Max(0, magnitude*RadiusScale)
}

// Marker is the circle style applied to a single event.
type Marker struct {
	Radius      float64 `json:"radius"`
	FillColor   string  `json:"fillColor"`
	FillOpacity float64 `json:"fillOpacity"`
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	Opacity     float64 `json:"opacity"`
}

// ForEvent computes the marker style for an event of the given magnitude and depth.
func ForEvent(magnitude, depth float64) Marker {
	b := ForDepth(depth)
	return Marker{
		Radius:      Radius(magnitude),
		FillColor:   b.Color,
		FillOpacity: b.Opacity,
		Color:       "#000",
		Weight:      1,
		Opacity:     1,
	}
}
