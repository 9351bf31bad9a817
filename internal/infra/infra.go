// Package infra provides shared infrastructure components used across
// the application: the rendered-chart cache and logger construction.
package infra

import (
	"sync"
	"sync/atomic"
	"time"
)

// --- Simple in-memory cache ---

// CacheEntry holds a cached value with expiration.
type CacheEntry[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// Cache is a thread-safe in-memory cache with TTL. A zero or negative TTL
// disables it: Set is a no-op and Get always misses.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry[V]
	ttl     time.Duration
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a new cache with the given default TTL.
func NewCache[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]CacheEntry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Enabled reports whether the cache stores anything.
func (c *Cache[V]) Enabled() bool { return c != nil && c.ttl > 0 }

// Get retrieves a value from the cache. Returns the zero value, false if not
// found or expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	if !c.Enabled() {
		return zero, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.ExpiresAt) {
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return entry.Value, true
}

// Set stores a value in the cache with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	if !c.Enabled() {
		return
	}
	c.mu.Lock()
	c.entries[key] = CacheEntry[V]{
		Value:     value,
		ExpiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Cleanup removes expired entries and returns how many were dropped.
// Can be called periodically.
func (c *Cache[V]) Cleanup() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, v := range c.entries {
		if now.After(v.ExpiresAt) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CacheStats is a point-in-time view of cache effectiveness.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Stats returns the current hit/miss counters.
func (c *Cache[V]) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	return CacheStats{Entries: c.Len(), Hits: c.hits.Load(), Misses: c.misses.Load()}
}
