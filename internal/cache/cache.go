// Package cache provides the run-scoped key/value store used by loader
// plugins, plus an optional SQLite-backed store for state that must survive
// across collection runs.
package cache

import (
	"sync"
	"time"
)

// Cache is a mutex-guarded map with optional per-entry expiration. There is
// no capacity bound; entries live until deleted, cleared, or expired.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]V
	timers  map[K]*time.Timer
}

// New creates an empty cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]V),
		timers:  make(map[K]*time.Timer),
	}
}

// Set stores value under key with no expiration. A pending eviction for a
// previous value under the same key is cancelled.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTimerLocked(key)
	c.entries[key] = value
}

// SetTTL stores value under key and schedules eviction after ttl. A
// non-positive ttl behaves like Set.
func (c *Cache[K, V]) SetTTL(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		c.Set(key, value)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTimerLocked(key)
	c.entries[key] = value
	c.timers[key] = time.AfterFunc(ttl, func() {
		c.Delete(key)
	})
}

// Get returns the value for key and whether it was present.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Has reports whether key is present.
func (c *Cache[K, V]) Has(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Delete removes key and cancels any pending eviction.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTimerLocked(key)
	delete(c.entries, key)
}

// Clear removes every entry and cancels all pending evictions.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, timer := range c.timers {
		timer.Stop()
		delete(c.timers, key)
	}
	c.entries = make(map[K]V)
}

// Len returns the number of live entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[K, V]) cancelTimerLocked(key K) {
	if timer, ok := c.timers[key]; ok {
		timer.Stop()
		delete(c.timers, key)
	}
}
