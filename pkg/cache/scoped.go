package cache

import (
	"context"
	"time"
)

// ScopedCache wraps a Cache and prefixes every key.
//
// Example usage:
//
//	// Reverse DNS answers of one capture site
//	hosts := cache.Scoped(backend, "hosts:dc1:")
type ScopedCache struct {
	inner  Cache
	prefix string
}

// Scoped returns a view of inner whose keys are prefixed with prefix.
// A nil inner is replaced by a [NullCache].
func Scoped(inner Cache, prefix string) *ScopedCache {
	if inner == nil {
		inner = NewNullCache()
	}
	return &ScopedCache{inner: inner, prefix: prefix}
}

// Get retrieves prefix+key from the wrapped cache.
func (c *ScopedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.inner.Get(ctx, c.prefix+key)
}

// Set stores data under prefix+key in the wrapped cache.
func (c *ScopedCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.inner.Set(ctx, c.prefix+key, data, ttl)
}

// Delete removes prefix+key from the wrapped cache.
func (c *ScopedCache) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, c.prefix+key)
}

// Close closes the wrapped cache.
func (c *ScopedCache) Close() error {
	return c.inner.Close()
}

// Prefix returns the key prefix of this view.
func (c *ScopedCache) Prefix() string { return c.prefix }

// Ensure ScopedCache implements Cache.
var _ Cache = (*ScopedCache)(nil)
