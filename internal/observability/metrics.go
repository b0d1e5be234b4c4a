package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// report run.
type Metrics struct {
	BucketsProcessed prometheus.Counter
	BucketErrors     prometheus.Counter
	ImagesRendered   prometheus.Counter
	RenderErrors     prometheus.Counter
	RunActive        prometheus.Gauge

	// Dataset gateway metrics.
	FetchDuration prometheus.Histogram
	FieldCache    *prometheus.CounterVec // labels: result={hit,miss,error}

	// Artifact manifest publishing.
	ManifestsPublished prometheus.Counter
	ManifestErrors     prometheus.Counter
}

// NewMetrics creates and registers all run metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		BucketsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wind_report",
			Name:      "buckets_processed_total",
			Help:      "Total date buckets fully rendered.",
		}),
		BucketErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wind_report",
			Name:      "bucket_errors_total",
			Help:      "Total date buckets skipped after an error.",
		}),
		ImagesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wind_report",
			Name:      "images_rendered_total",
			Help:      "Total report images written.",
		}),
		RenderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wind_report",
			Name:      "render_errors_total",
			Help:      "Total image render failures.",
		}),
		RunActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wind_report",
			Name:      "run_active",
			Help:      "1 while a report run is in progress, 0 when finished.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wind_report",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of one dataset gateway window fetch.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		FieldCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wind_report",
			Name:      "field_cache_total",
			Help:      "Field cache lookups by result.",
		}, []string{"result"}),
		ManifestsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wind_report",
			Name:      "manifests_published_total",
			Help:      "Total artifact manifests published to the catalog topic.",
		}),
		ManifestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wind_report",
			Name:      "manifest_errors_total",
			Help:      "Total manifest publish failures.",
		}),
	}

	prometheus.MustRegister(
		m.BucketsProcessed,
		m.BucketErrors,
		m.ImagesRendered,
		m.RenderErrors,
		m.RunActive,
		m.FetchDuration,
		m.FieldCache,
		m.ManifestsPublished,
		m.ManifestErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		BucketsProcessed:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wind_report", Name: "buckets_processed_total"}),
		BucketErrors:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wind_report", Name: "bucket_errors_total"}),
		ImagesRendered:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wind_report", Name: "images_rendered_total"}),
		RenderErrors:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wind_report", Name: "render_errors_total"}),
		RunActive:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "wind_report", Name: "run_active"}),
		FetchDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "wind_report", Name: "fetch_duration_seconds"}),
		FieldCache:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "wind_report", Name: "field_cache_total"}, []string{"result"}),
		ManifestsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wind_report", Name: "manifests_published_total"}),
		ManifestErrors:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wind_report", Name: "manifest_errors_total"}),
	}
}
