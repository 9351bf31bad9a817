// Package metrics provides Prometheus metrics for chart rendering and the
// HTTP API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Render results.
const (
	ResultSVG   = "svg"
	ResultEmpty = "empty"
)

// Manager owns a private registry and every skillchart metric.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	chartsRendered *prometheus.CounterVec
	renderSeconds  prometheus.Histogram
	httpRequests   *prometheus.CounterVec
	cacheHits      prometheus.Counter
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom buckets for the render latency histogram.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithRegistry sets the registry metrics are registered on.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// NewManager creates a metrics manager on a fresh registry, so default Go
// runtime collectors stay out of /metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "skillchart",
		histogramBuckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)
	m.chartsRendered = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "charts_rendered_total",
		Help:      "Progress charts rendered, by result (svg or empty).",
	}, []string{"result"})
	m.renderSeconds = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "chart_render_seconds",
		Help:      "Time spent rendering one progress chart.",
		Buckets:   m.histogramBuckets,
	})
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern and status code.",
	}, []string{"route", "code"})
	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "chart_cache_hits_total",
		Help:      "Chart requests served from the render cache.",
	})
	return m
}

// Registry returns the underlying registry.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRender records one render. svg is the rendered output; an empty
// string counts as an empty chart.
func (m *Manager) ObserveRender(svg string, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := ResultSVG
	if svg == "" {
		result = ResultEmpty
	}
	m.chartsRendered.WithLabelValues(result).Inc()
	m.renderSeconds.Observe(elapsed.Seconds())
}

// RecordHTTPRequest counts one request against its route pattern.
func (m *Manager) RecordHTTPRequest(route, code string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, code).Inc()
}

// RecordCacheHit counts one render served from cache.
func (m *Manager) RecordCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}
