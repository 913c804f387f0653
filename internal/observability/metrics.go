package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the fetch → render → compose pipeline.
type Metrics struct {
	FetchDuration   prometheus.Histogram
	FetchErrors     prometheus.Counter
	FeaturesFetched prometheus.Counter
	FeaturesSkipped prometheus.Counter
	MarkersRendered prometheus.Gauge       // markers in the most recent overlay
	MapsComposed    *prometheus.CounterVec // labels: outcome={success,error}
	PagesRendered   *prometheus.CounterVec // labels: output={http,file}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchDuration,
		m.FetchErrors,
		m.FeaturesFetched,
		m.FeaturesSkipped,
		m.MarkersRendered,
		m.MapsComposed,
		m.PagesRendered,
	)
	return m
}

// NewUnregisteredMetrics creates Metrics outside any registry. One-shot runs
// that never serve /metrics use it.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_map",
			Name:      "feed_fetch_duration_seconds",
			Help:      "Duration of earthquake feed requests.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_map",
			Name:      "feed_fetch_errors_total",
			Help:      "Feed requests that failed before any feature was read.",
		}),
		FeaturesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_map",
			Name:      "features_fetched_total",
			Help:      "Features received from the feed.",
		}),
		FeaturesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_map",
			Name:      "features_skipped_total",
			Help:      "Malformed features left off the map.",
		}),
		MarkersRendered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_map",
			Name:      "markers_rendered",
			Help:      "Markers in the most recently composed overlay.",
		}),
		MapsComposed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_map",
			Name:      "maps_composed_total",
			Help:      "Map compositions by outcome.",
		}, []string{"outcome"}),
		PagesRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_map",
			Name:      "pages_rendered_total",
			Help:      "HTML pages written, by destination.",
		}, []string{"output"}),
	}
}
