package mapview

import (
	"bytes"
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/mr1hm/go-quake-map/internal/config"
	"github.com/mr1hm/go-quake-map/internal/models"
	"github.com/mr1hm/go-quake-map/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	dataRe   = regexp.MustCompile(`(?s)id="quake-map-data">(.*?)</script>`)
	legendRe = regexp.MustCompile(`(?s)id="quake-map-legend"(.*?)</div>`)
)

type pageJSON struct {
	Container  string     `json:"container"`
	Center     [2]float64 `json:"center"`
	Zoom       int        `json:"zoom"`
	BaseLayers []struct {
		Name        string `json:"name"`
		URL         string `json:"url"`
		Attribution string `json:"attribution"`
		Visible     bool   `json:"visible"`
	} `json:"baseLayers"`
	Overlays []struct {
		Name    string `json:"name"`
		Visible bool   `json:"visible"`
		Data    struct {
			Type     string `json:"type"`
			Features []struct {
				Properties struct {
					Popup string `json:"popup"`
					Style struct {
						Radius      float64 `json:"radius"`
						FillColor   string  `json:"fillColor"`
						FillOpacity float64 `json:"fillOpacity"`
					} `json:"style"`
				} `json:"properties"`
			} `json:"features"`
		} `json:"data"`
	} `json:"overlays"`
	LegendID       string `json:"legendId"`
	LegendPosition string `json:"legendPosition"`
}

func renderOverlay(t *testing.T, quakes ...models.Earthquake) *render.Overlay {
	t.Helper()
	overlay, err := render.New(2, time.UTC).Render(context.Background(), "Earthquakes", quakes)
	require.NoError(t, err)
	return overlay
}

func renderPage(t *testing.T, m *Map) (string, pageJSON) {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, m))

	page := buf.String()
	match := dataRe.FindStringSubmatch(page)
	require.Len(t, match, 2, "page has no data block")

	var data pageJSON
	require.NoError(t, json.Unmarshal([]byte(match[1]), &data))
	return page, data
}

func TestCompose_Defaults(t *testing.T) {
	overlay := renderOverlay(t, models.Earthquake{ID: "a", Magnitude: 5, Depth: 95, Longitude: -116, Latitude: 34})
	m := Compose(config.DefaultMap(), overlay)

	assert.Equal(t, "map", m.Container)
	assert.Equal(t, 37.09, m.Center.Lat())
	assert.Equal(t, -95.71, m.Center.Lon())
	assert.Equal(t, 5, m.Zoom)

	require.Len(t, m.BaseLayers, 2)
	assert.Equal(t, "Street Map", m.BaseLayers[0].Name)
	assert.True(t, m.BaseLayers[0].Visible)
	assert.Contains(t, m.BaseLayers[0].Attribution, "OpenStreetMap")
	assert.Equal(t, "Topographic Map", m.BaseLayers[1].Name)
	assert.False(t, m.BaseLayers[1].Visible)
	assert.Contains(t, m.BaseLayers[1].Attribution, "OpenTopoMap")

	require.Len(t, m.Overlays, 1)
	assert.Equal(t, "Earthquakes", m.Overlays[0].Name)
	assert.True(t, m.Overlays[0].Visible)
	assert.Equal(t, 1, m.MarkerCount())

	assert.Equal(t, "bottomright", m.Legend.Position)
	assert.Len(t, m.Legend.Depths, 6)
	assert.Len(t, m.Legend.Magnitudes, 5)
}

func TestCompose_EmptyOverlay(t *testing.T) {
	m := Compose(config.DefaultMap(), renderOverlay(t))

	assert.Len(t, m.BaseLayers, 2)
	require.Len(t, m.Overlays, 1)
	assert.Equal(t, "Earthquakes", m.Overlays[0].Name)
	assert.Equal(t, 0, m.MarkerCount())
}

func TestRenderer_Page(t *testing.T) {
	overlay := renderOverlay(t,
		models.Earthquake{ID: "deep", Place: "Off the coast", Magnitude: 5, Depth: 95, Longitude: -120, Latitude: 35},
		models.Earthquake{ID: "shallow", Place: "Inland", Magnitude: 2, Depth: 10, Longitude: -100, Latitude: 40},
	)
	page, data := renderPage(t, Compose(config.DefaultMap(), overlay))

	assert.Contains(t, page, "<!doctype html>")
	assert.Contains(t, page, "leaflet@1.9.4/dist/leaflet.js")
	assert.Contains(t, page, `id="map"`)
	assert.Contains(t, page, "Depth (km)")
	assert.Contains(t, page, "Magnitude")
	assert.Contains(t, page, "90+")
	assert.Contains(t, page, "5+")
	assert.Contains(t, page, "L.circleMarker")

	assert.Equal(t, "map", data.Container)
	assert.Equal(t, [2]float64{37.09, -95.71}, data.Center)
	assert.Equal(t, 5, data.Zoom)
	assert.Equal(t, "bottomright", data.LegendPosition)
	assert.Equal(t, legendID, data.LegendID)

	require.Len(t, data.BaseLayers, 2)
	assert.Equal(t, "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png", data.BaseLayers[0].URL)
	assert.Contains(t, data.BaseLayers[0].Attribution, `<a href="https://www.openstreetmap.org/copyright">`)

	require.Len(t, data.Overlays, 1)
	assert.Equal(t, "FeatureCollection", data.Overlays[0].Data.Type)
	features := data.Overlays[0].Data.Features
	require.Len(t, features, 2)
	assert.Equal(t, "#0000FF", features[0].Properties.Style.FillColor)
	assert.Equal(t, 1.0, features[0].Properties.Style.FillOpacity)
	assert.Equal(t, 40.0, features[0].Properties.Style.Radius)
	assert.Equal(t, "#00FF00", features[1].Properties.Style.FillColor)
	assert.Equal(t, 16.0, features[1].Properties.Style.Radius)
	assert.Contains(t, features[0].Properties.Popup, "<h3>Off the coast</h3>")
}

func TestRenderer_EmptyOverlayStillHasLayers(t *testing.T) {
	_, data := renderPage(t, Compose(config.DefaultMap(), renderOverlay(t)))

	assert.Len(t, data.BaseLayers, 2)
	require.Len(t, data.Overlays, 1)
	assert.Equal(t, "Earthquakes", data.Overlays[0].Name)
	assert.Empty(t, data.Overlays[0].Data.Features)
}

func TestRenderer_EscapesScriptBreakout(t *testing.T) {
	overlay := renderOverlay(t, models.Earthquake{ID: "x", Place: "</script><script>alert(1)</script>", Magnitude: 1})
	page, data := renderPage(t, Compose(config.DefaultMap(), overlay))

	assert.NotContains(t, page, "<script>alert(1)")
	require.Len(t, data.Overlays[0].Data.Features, 1)
}

func TestRenderer_LegendSwatchesCarryBucketOpacity(t *testing.T) {
	page, _ := renderPage(t, Compose(config.DefaultMap(), renderOverlay(t)))

	match := legendRe.FindStringSubmatch(page)
	require.Len(t, match, 2, "page has no legend block")
	legend := match[1]

	// One swatch per depth bucket, each with its own opacity.
	assert.Equal(t, 6, strings.Count(legend, `class="depth"`))
	assert.Equal(t, 6, strings.Count(legend, "opacity:"))
	assert.NotContains(t, page, "opacity:.7")
	assert.NotContains(t, page, "opacity:0.7")
}
