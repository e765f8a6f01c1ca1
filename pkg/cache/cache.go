// Package cache provides the artifact caches used by the pipeline and the
// HTTP server.
//
// # Backends
//
//   - [NullCache]: never stores anything (--no-cache, tests)
//   - [FileCache]: snappy-compressed entries under a local directory (CLI)
//   - [RedisCache]: a shared Redis instance (serve)
//
// Every backend can be wrapped with [Instrument], which reports hits, misses
// and writes to the registered observability cache hooks.
//
// # Keys
//
// Keys are produced by a [Keyer] from a document hash plus the options that
// affect the cached value, so a changed option never returns a stale result.
// [NewScopedKeyer] prefixes every key, which lets several processes share one
// Redis database without collisions.
package cache

import (
	"context"
	"time"
)

// Default TTLs for cached values.
const (
	HierarchyTTL = 24 * time.Hour
	ArtifactTTL  = 7 * 24 * time.Hour
)

// Cache stores opaque byte values by key.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A zero ttl passed to Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
