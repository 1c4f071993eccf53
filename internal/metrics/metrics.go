// Package metrics holds the Prometheus collectors for the library engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Import outcome labels besides the import error kinds.
const (
	OutcomeImported = "imported"
)

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	imports        *prometheus.CounterVec
	importDuration prometheus.Histogram
	layouts        *prometheus.CounterVec
	assets         prometheus.Gauge
	requests       *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		imports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shutterbox",
				Name:      "imports_total",
				Help:      "Ingested files by outcome.",
			},
			[]string{"outcome"},
		),
		importDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shutterbox",
			Name:      "import_duration_seconds",
			Help:      "Time to ingest one file, including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		layouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shutterbox",
				Name:      "layout_computations_total",
				Help:      "Masonry layout computations by trigger source.",
			},
			[]string{"source"},
		),
		assets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shutterbox",
			Name:      "library_assets",
			Help:      "Assets in the current library snapshot.",
		}),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		gatherer: reg,
	}

	for _, c := range []prometheus.Collector{m.imports, m.importDuration, m.layouts, m.assets, m.requests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveImport records one ingested file.
func (m *Metrics) ObserveImport(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(outcome).Inc()
	m.importDuration.Observe(d.Seconds())
}

// LayoutComputed counts one layout computation.
func (m *Metrics) LayoutComputed(source string) {
	if m == nil {
		return
	}
	m.layouts.WithLabelValues(source).Inc()
}

// SetAssets publishes the library size.
func (m *Metrics) SetAssets(n int) {
	if m == nil {
		return
	}
	m.assets.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware counts HTTP requests by route pattern. /metrics is excluded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
	})
}
