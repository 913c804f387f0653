// Package pipeline wires the fetch, render and compose stages into a single
// call that produces a map.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/mr1hm/go-quake-map/internal/config"
	"github.com/mr1hm/go-quake-map/internal/ingestion"
	"github.com/mr1hm/go-quake-map/internal/mapview"
	"github.com/mr1hm/go-quake-map/internal/models"
	"github.com/mr1hm/go-quake-map/internal/observability"
	"github.com/mr1hm/go-quake-map/internal/render"
)

var (
	// ErrFetch wraps any failure to obtain the feed. No map is produced.
	ErrFetch = errors.New("earthquake feed unavailable")
	// ErrStrict is returned in strict mode when the feed holds a malformed feature.
	ErrStrict = errors.New("feed rejected in strict mode")
)

// Fetcher retrieves one snapshot of the earthquake feed.
type Fetcher interface {
	Fetch(ctx context.Context) (*ingestion.Collection, error)
}

// Renderer turns parsed earthquakes into a styled overlay.
type Renderer interface {
	Render(ctx context.Context, name string, quakes []models.Earthquake) (*render.Overlay, error)
}

// Pipeline orchestrates fetch -> render -> compose. It holds no state between
// runs apart from readiness, so every call reflects the feed at that moment.
type Pipeline struct {
	fetcher  Fetcher
	renderer Renderer
	mapCfg   config.MapConfig
	strict   bool
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

func New(f Fetcher, r Renderer, mapCfg config.MapConfig, strict bool, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher:  f,
		renderer: r,
		mapCfg:   mapCfg,
		strict:   strict,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once at least one map has been composed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no map has been composed yet")
	}
	return nil
}

// Run fetches the feed and composes the full map. On error the returned map
// is nil; a partial map is never produced.
func (p *Pipeline) Run(ctx context.Context) (*mapview.Map, error) {
	overlay, err := p.Overlay(ctx)
	if err != nil {
		p.metrics.MapsComposed.WithLabelValues("error").Inc()
		return nil, err
	}

	m := mapview.Compose(p.mapCfg, overlay)
	p.metrics.MapsComposed.WithLabelValues("success").Inc()
	p.ready.Store(true)

	p.logger.Info("map composed",
		"markers", m.MarkerCount(),
		"skipped", overlay.Skipped,
		"base_layers", len(m.BaseLayers),
	)
	return m, nil
}

// Overlay fetches the feed and renders the earthquake overlay without
// composing a map around it.
func (p *Pipeline) Overlay(ctx context.Context) (*render.Overlay, error) {
	start := time.Now()
	coll, err := p.fetcher.Fetch(ctx)
	p.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.FetchErrors.Inc()
		p.logger.Error("feed fetch failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	p.metrics.FeaturesFetched.Add(float64(len(coll.Features)))

	failed := coll.Failed()
	for _, f := range failed {
		p.logger.Warn("skipping malformed feature", "index", f.Index, "error", f.Err)
	}
	if len(failed) > 0 && p.strict {
		return nil, fmt.Errorf("%w: %d of %d features malformed, first: %w",
			ErrStrict, len(failed), len(coll.Features), failed[0].Err)
	}
	p.metrics.FeaturesSkipped.Add(float64(len(failed)))

	overlay, err := p.renderer.Render(ctx, p.mapCfg.OverlayName, coll.Valid())
	if err != nil {
		p.logger.Error("render failed", "error", err)
		return nil, fmt.Errorf("error rendering overlay: %w", err)
	}
	overlay.Skipped = len(failed)
	p.metrics.MarkersRendered.Set(float64(len(overlay.Markers)))

	p.logger.Debug("overlay rendered", "url", coll.URL, "features", len(coll.Features), "markers", len(overlay.Markers))
	return overlay, nil
}
