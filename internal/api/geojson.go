package api

import (
	"github.com/mr1hm/go-quake-map/internal/render"
	"github.com/paulmach/orb/geojson"
)

// Filter narrows the overlay served by /api/earthquakes. Nil fields are ignored.
type Filter struct {
	MinMagnitude *float64
	MinDepth     *float64
	Limit        int
}

func (f Filter) match(m render.Marker) bool {
	if f.MinMagnitude != nil && m.Quake.Magnitude < *f.MinMagnitude {
		return false
	}
	if f.MinDepth != nil && m.Quake.Depth < *f.MinDepth {
		return false
	}
	return true
}

// toGeoJSON converts the markers passing filter into a FeatureCollection,
// keeping feed order.
func toGeoJSON(overlay *render.Overlay, filter Filter) *geojson.FeatureCollection {
	kept := make([]render.Marker, 0, len(overlay.Markers))
	for _, m := range overlay.Markers {
		if !filter.match(m) {
			continue
		}
		kept = append(kept, m)
		if filter.Limit > 0 && len(kept) == filter.Limit {
			break
		}
	}

	filtered := render.Overlay{
		Name:    overlay.Name,
		Markers: kept,
		Skipped: overlay.Skipped,
	}
	return filtered.FeatureCollection()
}
