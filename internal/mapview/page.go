package mapview

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"regexp"

	"github.com/mr1hm/go-quake-map/internal/style"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	minjson "github.com/tdewolff/minify/v2/json"
)

//go:embed assets/page.html.tmpl assets/map.css assets/map.js
var assets embed.FS

const legendID = "quake-map-legend"

var (
	jsMime   = regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`)
	jsonMime = regexp.MustCompile(`[/+]json$`)
)

type pageData struct {
	Title     string
	Container string
	LegendID  string
	CSS       template.CSS
	JS        template.JS
	Legend    style.Legend
	Data      pageConfig
}

// pageConfig is the JSON document map.js reads to build the Leaflet view.
type pageConfig struct {
	Container      string         `json:"container"`
	Center         [2]float64     `json:"center"` // [lat, lon]
	Zoom           int            `json:"zoom"`
	BaseLayers     []TileLayer    `json:"baseLayers"`
	Overlays       []OverlayLayer `json:"overlays"`
	LegendID       string         `json:"legendId"`
	LegendPosition string         `json:"legendPosition"`
}

// Renderer turns a composed Map into a self-contained, minified HTML page.
type Renderer struct {
	tmpl *template.Template
	css  template.CSS
	js   template.JS
	m    *minify.M
}

func NewRenderer() (*Renderer, error) {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFuncRegexp(jsMime, js.Minify)
	m.AddFuncRegexp(jsonMime, minjson.Minify)
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})

	cssRaw, err := assets.ReadFile("assets/map.css")
	if err != nil {
		return nil, fmt.Errorf("error reading CSS: %w", err)
	}
	cssMin, err := m.String("text/css", string(cssRaw))
	if err != nil {
		return nil, fmt.Errorf("error minifying CSS: %w", err)
	}

	jsRaw, err := assets.ReadFile("assets/map.js")
	if err != nil {
		return nil, fmt.Errorf("error reading JS: %w", err)
	}
	jsMin, err := m.String("text/javascript", string(jsRaw))
	if err != nil {
		return nil, fmt.Errorf("error minifying JS: %w", err)
	}

	tmpl, err := template.ParseFS(assets, "assets/page.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("error parsing page template: %w", err)
	}

	return &Renderer{
		tmpl: tmpl,
		css:  template.CSS(cssMin),
		js:   template.JS(jsMin),
		m:    m,
	}, nil
}

// Render writes the page for mp to w.
func (r *Renderer) Render(w io.Writer, mp *Map) error {
	data := pageData{
		Title:     mp.Title,
		Container: mp.Container,
		LegendID:  legendID,
		CSS:       r.css,
		JS:        r.js,
		Legend:    mp.Legend,
		Data: pageConfig{
			Container:      mp.Container,
			Center:         [2]float64{mp.Center.Lat(), mp.Center.Lon()},
			Zoom:           mp.Zoom,
			BaseLayers:     mp.BaseLayers,
			Overlays:       mp.Overlays,
			LegendID:       legendID,
			LegendPosition: mp.Legend.Position,
		},
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("error executing page template: %w", err)
	}

	if err := r.m.Minify("text/html", w, &buf); err != nil {
		return fmt.Errorf("error minifying page: %w", err)
	}
	return nil
}
