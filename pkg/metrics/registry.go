// Package metrics exposes Prometheus metrics for hierarchy builds, renders,
// cache traffic and HTTP requests.
//
// A [Registry] implements the observability hook interfaces; [Registry.Install]
// registers it globally so the builder, the pipeline and the caches report
// to it without importing this package.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics.
type Registry struct {
	// Build metrics
	BuildsTotal    *prometheus.CounterVec
	BuildDuration  prometheus.Histogram
	BuildLevels    prometheus.Histogram
	LevelSubgraphs prometheus.Histogram
	LevelEdges     prometheus.Histogram
	LevelDuration  prometheus.Histogram

	// Render metrics
	RendersTotal   *prometheus.CounterVec
	RenderDuration *prometheus.HistogramVec
	RenderBytes    *prometheus.HistogramVec

	// Cache metrics
	CacheEventsTotal *prometheus.CounterVec
	CacheBytesTotal  *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every metric initialized, plus the
// standard Go runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	r.initBuildMetrics()
	r.initRenderMetrics()
	r.initCacheMetrics()
	r.initHTTPMetrics()
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.registry
}
