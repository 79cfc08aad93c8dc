package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the scroll map service.
type Metrics struct {
	SceneEntries      prometheus.Counter
	ProgressEvents    prometheus.Counter
	ProgressCoalesced prometheus.Counter
	SessionsActive    prometheus.Gauge

	// Rendering metrics.
	PaintDuration     *prometheus.HistogramVec // labels: mode={discrete,instant}
	FillCache         *prometheus.CounterVec   // labels: result={hit,miss}
	UnmappedPolygons  prometheus.Gauge
	CounterTweens     prometheus.Counter
	DatasetDates      prometheus.Gauge
	StartupLoadErrors *prometheus.CounterVec // labels: input={dataset,topology,scenes,events}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.SceneEntries,
		m.ProgressEvents,
		m.ProgressCoalesced,
		m.SessionsActive,
		m.PaintDuration,
		m.FillCache,
		m.UnmappedPolygons,
		m.CounterTweens,
		m.DatasetDates,
		m.StartupLoadErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SceneEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scrollmap",
			Name:      "scene_entries_total",
			Help:      "Total discrete scene entries across all sessions.",
		}),
		ProgressEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scrollmap",
			Name:      "progress_events_total",
			Help:      "Total continuous progress events applied.",
		}),
		ProgressCoalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scrollmap",
			Name:      "progress_coalesced_total",
			Help:      "Progress events superseded by a newer one before being applied.",
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scrollmap",
			Name:      "sessions_active",
			Help:      "Number of open viewer sessions.",
		}),
		PaintDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scrollmap",
			Name:      "paint_duration_seconds",
			Help:      "Time to recolour the polygon set.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		}, []string{"mode"}),
		FillCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scrollmap",
			Name:      "fill_cache_total",
			Help:      "Fill cache lookups by result.",
		}, []string{"result"}),
		UnmappedPolygons: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scrollmap",
			Name:      "unmapped_polygons",
			Help:      "Topology polygons whose id has no ISO3 code.",
		}),
		CounterTweens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scrollmap",
			Name:      "counter_tweens_total",
			Help:      "Counter tweens started, including ones that superseded an in-flight tween.",
		}),
		DatasetDates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scrollmap",
			Name:      "dataset_dates",
			Help:      "Distinct dates held by the date index.",
		}),
		StartupLoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scrollmap",
			Name:      "startup_load_errors_total",
			Help:      "Startup input loads that failed, by input.",
		}, []string{"input"}),
	}
}
