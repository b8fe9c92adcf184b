// Package cache provides small key/value caches with optional expiry.
//
// flowgraph uses a cache to remember reverse DNS answers while turning packet
// captures into edges, so repeated captures of the same network do not resolve
// every address again. The backend is chosen by configuration:
//
//   - [NullCache]: caching disabled
//   - [MemoryCache]: bounded in-process LRU, gone when the process exits
//   - [FileCache]: one JSON file per entry, shared by consecutive CLI runs
//   - [RedisCache]: shared by every process pointed at the same Redis
//
// [Scoped] prefixes every key so unrelated users can share a backend.
//
// All implementations are safe for concurrent use.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys.
//
// Get reports a miss with ok == false and a nil error. A ttl <= 0 passed to
// Set stores the value without expiry.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
