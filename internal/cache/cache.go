// Package cache provides a small generic least-recently-used cache.
package cache

import (
	"slices"
	"sync"
)

// Cache is a thread-safe map with a soft size limit. When an insertion
// pushes it past the limit, the least recently used quarter is evicted.
// A limit of 0 disables eviction.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
	limit   int
	tick    uint64
	evicted uint64
}

type entry[V any] struct {
	value V
	used  uint64
}

// New creates a cache with the given soft limit.
func New[K comparable, V any](limit int) *Cache[K, V] {
	return &Cache[K, V]{entries: make(map[K]*entry[V]), limit: limit}
}

// Get returns the value for key and marks it as recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.tick++
	e.used = c.tick
	return e.value, true
}

// GetOrCreate returns the cached value for key, calling create under the
// lock on a miss so concurrent callers never build the same value twice.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick++
	if e, ok := c.entries[key]; ok {
		e.used = c.tick
		return e.value
	}
	v := create()
	c.entries[key] = &entry[V]{value: v, used: c.tick}
	if c.limit > 0 && len(c.entries) > c.limit {
		c.evict()
	}
	return v
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Evicted returns the number of entries dropped by the size limit.
func (c *Cache[K, V]) Evicted() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evicted
}

// evict shrinks the cache to three quarters of the limit, oldest first.
// c.mu must be held.
func (c *Cache[K, V]) evict() {
	target := max(c.limit*3/4, 1)
	n := len(c.entries) - target
	if n <= 0 {
		return
	}
	type aged struct {
		key  K
		used uint64
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{k, e.used})
	}
	slices.SortFunc(all, func(a, b aged) int {
		switch {
		case a.used < b.used:
			return -1
		case a.used > b.used:
			return 1
		}
		return 0
	})
	for _, a := range all[:n] {
		delete(c.entries, a.key)
	}
	c.evicted += uint64(n) //nolint:gosec // n > 0
}
