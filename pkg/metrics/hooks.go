package metrics

import (
	"context"
	"strconv"
	"strings"
	"time"

	apperr "github.com/matzehuels/multilevel/pkg/errors"
	"github.com/matzehuels/multilevel/pkg/observability"
)

// OnBuildStart implements observability.BuildHooks.
func (r *Registry) OnBuildStart(_ context.Context, levels, _, _ int) {
	r.BuildLevels.Observe(float64(levels))
}

// OnLevelBuilt implements observability.BuildHooks. Levels may be reported
// concurrently; Prometheus collectors are safe for that.
func (r *Registry) OnLevelBuilt(_ context.Context, _, subgraphs, edges int, d time.Duration) {
	r.LevelSubgraphs.Observe(float64(subgraphs))
	r.LevelEdges.Observe(float64(edges))
	r.LevelDuration.Observe(d.Seconds())
}

// OnBuildComplete implements observability.BuildHooks. Failed builds are
// labeled with their lower-cased error code.
func (r *Registry) OnBuildComplete(_ context.Context, _ int, d time.Duration, err error) {
	if err != nil {
		r.BuildsTotal.WithLabelValues(status(err)).Inc()
		return
	}
	r.BuildsTotal.WithLabelValues("success").Inc()
	r.BuildDuration.Observe(d.Seconds())
}

// OnRenderStart implements observability.RenderHooks.
func (r *Registry) OnRenderStart(context.Context, string) {}

// OnRenderComplete implements observability.RenderHooks.
func (r *Registry) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if err != nil {
		r.RendersTotal.WithLabelValues(format, "error").Inc()
		return
	}
	r.RendersTotal.WithLabelValues(format, "success").Inc()
	r.RenderDuration.WithLabelValues(format).Observe(d.Seconds())
	r.RenderBytes.WithLabelValues(format).Observe(float64(size))
}

// OnCacheHit implements observability.CacheHooks.
func (r *Registry) OnCacheHit(_ context.Context, keyType string) {
	r.CacheEventsTotal.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (r *Registry) OnCacheMiss(_ context.Context, keyType string) {
	r.CacheEventsTotal.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (r *Registry) OnCacheSet(_ context.Context, keyType string, size int) {
	r.CacheEventsTotal.WithLabelValues(keyType, "set").Inc()
	r.CacheBytesTotal.WithLabelValues(keyType).Add(float64(size))
}

func status(err error) string {
	if code := apperr.GetCode(err); code != "" {
		return strings.ToLower(string(code))
	}
	return "error"
}

// RecordHTTPRequest records a served request.
func (r *Registry) RecordHTTPRequest(method, route string, code int, d time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Install registers r as the global build, render and cache hooks.
func (r *Registry) Install() {
	observability.SetBuildHooks(r)
	observability.SetRenderHooks(r)
	observability.SetCacheHooks(r)
}

var (
	_ observability.BuildHooks  = (*Registry)(nil)
	_ observability.RenderHooks = (*Registry)(nil)
	_ observability.CacheHooks  = (*Registry)(nil)
)
