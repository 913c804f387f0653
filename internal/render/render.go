// Package render turns parsed earthquakes into styled map markers.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/mr1hm/go-quake-map/internal/models"
	"github.com/mr1hm/go-quake-map/internal/style"
	"github.com/mr1hm/go-quake-map/internal/worker"
	"github.com/paulmach/orb/geojson"
)

// dateLayout follows the shape of a browser Date string, except that the zone
// in parentheses is the abbreviation ("UTC", "PST") rather than the long name.
const dateLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

var popupTemplate = template.Must(template.New("popup").Parse(
	`<h3>{{.Place}}</h3>` +
		`<p>Date: {{.Date}}</p>` +
		`<p>Magnitude: {{.Magnitude}}</p>` +
		`<p>Latitude: {{.Latitude}}</p>` +
		`<p>Longitude: {{.Longitude}}</p>` +
		`<p>Depth: {{.Depth}} km</p>`,
))

type popupData struct {
	Place     string
	Date      string
	Magnitude string
	Latitude  string
	Longitude string
	Depth     string
}

// Marker is one earthquake drawn as a circle with a popup.
type Marker struct {
	Quake models.Earthquake
	Style style.Marker
	Popup string // HTML
}

// Overlay aggregates every marker drawn for one feed.
type Overlay struct {
	Name    string
	Markers []Marker
	Skipped int // malformed features left off the map
}

// FeatureCollection converts the overlay into GeoJSON, carrying the style and
// popup of each marker in its properties.
func (o *Overlay) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range o.Markers {
		f := geojson.NewFeature(m.Quake.Point())
		f.ID = m.Quake.ID
		f.Properties["place"] = m.Quake.Place
		f.Properties["time"] = m.Quake.Time.UnixMilli()
		f.Properties["mag"] = m.Quake.Magnitude
		f.Properties["depth"] = m.Quake.Depth
		f.Properties["style"] = m.Style
		f.Properties["popup"] = m.Popup
		fc.Append(f)
	}
	return fc
}

type Renderer struct {
	workers  int
	location *time.Location
}

// New returns a Renderer that styles features on up to workers goroutines and
// prints popup dates in loc.
func New(workers int, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{
		workers:  workers,
		location: loc,
	}
}

// Render styles every quake. Markers keep the order of quakes.
func (r *Renderer) Render(ctx context.Context, name string, quakes []models.Earthquake) (*Overlay, error) {
	markers := make([]Marker, len(quakes))
	if len(quakes) == 0 {
		return &Overlay{Name: name, Markers: markers}, nil
	}

	errs := make([]error, len(quakes))
	pool := worker.NewPool(r.workers, len(quakes), func(ctx context.Context, i int) error {
		m, err := r.marker(quakes[i])
		if err != nil {
			errs[i] = err
			return err
		}
		markers[i] = m
		return nil
	})
	pool.Start(ctx)

	for i := range quakes {
		if err := pool.Submit(ctx, i); err != nil {
			break
		}
	}
	pool.Stop()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render interrupted: %w", err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &Overlay{Name: name, Markers: markers}, nil
}

func (r *Renderer) marker(q models.Earthquake) (Marker, error) {
	popup, err := r.popup(q)
	if err != nil {
		return Marker{}, fmt.Errorf("error rendering popup for %s: %w", q.ID, err)
	}
	return Marker{
		Quake: q,
		Style: style.ForEvent(q.Magnitude, q.Depth),
		Popup: popup,
	}, nil
}

func (r *Renderer) popup(q models.Earthquake) (string, error) {
	var buf bytes.Buffer
	err := popupTemplate.Execute(&buf, popupData{
		Place:     q.Place,
		Date:      q.Time.In(r.location).Format(dateLayout),
		Magnitude: formatNumber(q.Magnitude),
		Latitude:  formatNumber(q.Latitude),
		Longitude: formatNumber(q.Longitude),
		Depth:     formatNumber(q.Depth),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
