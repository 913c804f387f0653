package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mr1hm/go-quake-map/internal/mapview"
	"github.com/mr1hm/go-quake-map/internal/observability"
	"github.com/mr1hm/go-quake-map/internal/pipeline"
	"github.com/mr1hm/go-quake-map/internal/render"
	"github.com/mr1hm/go-quake-map/internal/style"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MapService produces fresh maps and overlays from the feed.
type MapService interface {
	Run(ctx context.Context) (*mapview.Map, error)
	Overlay(ctx context.Context) (*render.Overlay, error)
	CheckReadiness(ctx context.Context) error
}

// PageRenderer writes a composed map as HTML.
type PageRenderer interface {
	Render(w io.Writer, m *mapview.Map) error
}

type Handler struct {
	svc     MapService
	pages   PageRenderer
	legend  style.Legend
	metrics *observability.Metrics
}

func NewHandler(svc MapService, pages PageRenderer, legendPosition string, metrics *observability.Metrics) *Handler {
	return &Handler{
		svc:     svc,
		pages:   pages,
		legend:  style.NewLegend(legendPosition),
		metrics: metrics,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.getMap)
	r.GET("/api/earthquakes", h.getEarthquakes)
	r.GET("/api/legend", h.getLegend)
	r.GET("/health", h.health)
	r.GET("/ready", h.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (h *Handler) getMap(c *gin.Context) {
	m, err := h.svc.Run(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.pages.Render(&buf, m); err != nil {
		slog.Error("page render failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to render map",
		})
		return
	}
	h.metrics.PagesRendered.WithLabelValues("http").Inc()

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *Handler) getEarthquakes(c *gin.Context) {
	var filter Filter

	if m := c.Query("min_magnitude"); m != "" {
		if mag, err := strconv.ParseFloat(m, 64); err == nil {
			filter.MinMagnitude = &mag
		}
	}
	if d := c.Query("min_depth"); d != "" {
		if depth, err := strconv.ParseFloat(d, 64); err == nil {
			filter.MinDepth = &depth
		}
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 20000 {
			filter.Limit = lim
		}
	}

	overlay, err := h.svc.Overlay(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	data, err := toGeoJSON(overlay, filter).MarshalJSON()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to encode earthquakes",
		})
		return
	}
	c.Header("X-Skipped-Features", strconv.Itoa(overlay.Skipped))
	c.Data(http.StatusOK, "application/geo+json", data)
}

func (h *Handler) getLegend(c *gin.Context) {
	c.JSON(http.StatusOK, h.legend)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ready(c *gin.Context) {
	if err := h.svc.CheckReadiness(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// fail maps pipeline errors to a status. Upstream problems are a bad gateway;
// anything else is ours.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pipeline.ErrFetch):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "earthquake feed unavailable",
		})
	case errors.Is(err, pipeline.ErrStrict):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "earthquake feed contained malformed features",
		})
	default:
		slog.Error("map request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to build map",
		})
	}
}
