package config

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"
)

// MapConfig describes how the map page is composed. It can be overridden by
// a YAML file referenced from MAP_CONFIG.
type MapConfig struct {
	Title          string      `yaml:"title"`
	Container      string      `yaml:"container"`
	Center         LatLon      `yaml:"center"`
	Zoom           int         `yaml:"zoom"`
	OverlayName    string      `yaml:"overlay"`
	LegendPosition string      `yaml:"legend_position"`
	BaseLayers     []BaseLayer `yaml:"base_layers"`
}

type LatLon struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// Point returns the coordinate in [lon, lat] order.
func (l LatLon) Point() orb.Point {
	return orb.Point{l.Lon, l.Lat}
}

// BaseLayer is a tiled imagery source the user can switch between.
type BaseLayer struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Attribution string `yaml:"attribution"`
	Default     bool   `yaml:"default,omitempty"`
}

func DefaultMap() MapConfig {
	return MapConfig{
		Title:          "Earthquakes",
		Container:      "map",
		Center:         LatLon{Lat: 37.09, Lon: -95.71},
		Zoom:           5,
		OverlayName:    "Earthquakes",
		LegendPosition: "bottomright",
		BaseLayers: []BaseLayer{
			{
				Name:        "Street Map",
				URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
				Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
				Default:     true,
			},
			{
				Name: "Topographic Map",
				URL:  "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png",
				Attribution: `Map data: &copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors, ` +
					`<a href="http://viewfinderpanoramas.org">SRTM</a> | Map style: &copy; <a href="https://opentopomap.org">OpenTopoMap</a> ` +
					`(<a href="https://creativecommons.org/licenses/by-sa/3.0/">CC-BY-SA</a>)`,
			},
		},
	}
}

// LoadMap returns the default map settings, overlaid with the YAML file at
// path when one is given.
func LoadMap(path string) (MapConfig, error) {
	cfg := DefaultMap()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("error reading map config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing map config %s: %w", path, err)
	}

	return cfg, nil
}

var legendPositions = map[string]bool{
	"topleft": true, "topright": true, "bottomleft": true, "bottomright": true,
}

func (m *MapConfig) validate() error {
	if m.Container == "" {
		return fmt.Errorf("map container id is required")
	}
	if m.Zoom < 0 || m.Zoom > 22 {
		return fmt.Errorf("invalid map zoom: %d", m.Zoom)
	}
	if m.Center.Lat < -90 || m.Center.Lat > 90 || m.Center.Lon < -180 || m.Center.Lon > 180 {
		return fmt.Errorf("invalid map center: %v,%v", m.Center.Lat, m.Center.Lon)
	}
	if !legendPositions[m.LegendPosition] {
		return fmt.Errorf("invalid legend position: %s", m.LegendPosition)
	}
	if len(m.BaseLayers) == 0 {
		return fmt.Errorf("at least one base layer is required")
	}

	defaults := 0
	for _, l := range m.BaseLayers {
		if l.Name == "" || l.URL == "" {
			return fmt.Errorf("base layer needs both a name and a url")
		}
		if l.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("only one base layer can be the default, got %d", defaults)
	}
	if defaults == 0 {
		m.BaseLayers[0].Default = true
	}

	return nil
}
