// Package mapview composes the earthquake map and renders it as an HTML page.
package mapview

import (
	"github.com/mr1hm/go-quake-map/internal/config"
	"github.com/mr1hm/go-quake-map/internal/render"
	"github.com/mr1hm/go-quake-map/internal/style"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// TileLayer is a base map the user can switch to.
type TileLayer struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	Visible     bool   `json:"visible"`
}

// OverlayLayer is a data layer drawn above the base map.
type OverlayLayer struct {
	Name    string                     `json:"name"`
	Visible bool                       `json:"visible"`
	Data    *geojson.FeatureCollection `json:"data"`
}

// Map is everything the browser needs to build the interactive view.
type Map struct {
	Title      string
	Container  string
	Center     orb.Point
	Zoom       int
	BaseLayers []TileLayer
	Overlays   []OverlayLayer
	Legend     style.Legend
}

// Compose builds the map around an already rendered overlay. The default base
// layer and the overlay start visible; every other base layer is only
// reachable from the layer control.
func Compose(cfg config.MapConfig, overlay *render.Overlay) *Map {
	m := &Map{
		Title:      cfg.Title,
		Container:  cfg.Container,
		Center:     cfg.Center.Point(),
		Zoom:       cfg.Zoom,
		BaseLayers: make([]TileLayer, 0, len(cfg.BaseLayers)),
		Legend:     style.NewLegend(cfg.LegendPosition),
	}

	for _, l := range cfg.BaseLayers {
		m.BaseLayers = append(m.BaseLayers, TileLayer{
			Name:        l.Name,
			URL:         l.URL,
			Attribution: l.Attribution,
			Visible:     l.Default,
		})
	}

	m.Overlays = []OverlayLayer{{
		Name:    overlay.Name,
		Visible: true,
		Data:    overlay.FeatureCollection(),
	}}

	return m
}

// MarkerCount is the number of features across all overlays.
func (m *Map) MarkerCount() int {
	n := 0
	for _, o := range m.Overlays {
		n += len(o.Data.Features)
	}
	return n
}
