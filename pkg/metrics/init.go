package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initBuildMetrics() {
	r.BuildsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "multilevel_builds_total",
			Help: "Total number of hierarchy builds by outcome",
		},
		[]string{"status"},
	)

	r.BuildDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "multilevel_build_duration_seconds",
			Help:    "Hierarchy build duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	r.BuildLevels = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "multilevel_build_levels",
			Help:    "Number of levels per build",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		},
	)

	r.LevelSubgraphs = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "multilevel_level_subgraphs",
			Help:    "Number of subgraphs produced per level",
			Buckets: []float64{0, 1, 10, 100, 1000, 10000},
		},
	)

	r.LevelEdges = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "multilevel_level_edges",
			Help:    "Number of edges kept inside subgraphs per level",
			Buckets: []float64{0, 10, 100, 1000, 10000, 100000},
		},
	)

	r.LevelDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "multilevel_level_duration_seconds",
			Help:    "Time to build one level in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		},
	)

}

func (r *Registry) initRenderMetrics() {
	r.RendersTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "multilevel_renders_total",
			Help: "Total number of renders by format and outcome",
		},
		[]string{"format", "status"},
	)

	r.RenderDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "multilevel_render_duration_seconds",
			Help:    "Render duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
		},
		[]string{"format"},
	)

	r.RenderBytes = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "multilevel_render_bytes",
			Help:    "Size of rendered artifacts in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"format"},
	)
}

func (r *Registry) initCacheMetrics() {
	r.CacheEventsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "multilevel_cache_events_total",
			Help: "Cache hits, misses and writes by backend",
		},
		[]string{"type", "event"},
	)

	r.CacheBytesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "multilevel_cache_written_bytes_total",
			Help: "Bytes written to the cache by backend",
		},
		[]string{"type"},
	)
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "multilevel_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "multilevel_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
}
