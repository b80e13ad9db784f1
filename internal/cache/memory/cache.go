// Package memory implements the process-local L1 cache tier: a size- and
// time-bounded LRU map with hit/miss counters. The tier is disposable by
// design; clearing it never loses durable work.
package memory

import (
	"container/list"
	"sync"
	"time"

	"kontra/internal/domain"
)

// Cache is a bounded LRU cache with per-entry TTL. A single mutex guards the
// map, the recency list, and the counters, so eviction order cannot be
// corrupted by concurrent access.
type Cache[V any] struct {
	mu         sync.Mutex
	maxEntries int
	entries    map[domain.Fingerprint]*list.Element
	order      *list.List // front = most recently used
	hits       int64
	misses     int64
	now        func() time.Time
}

type entry[V any] struct {
	cacheEntry domain.CacheEntry[V]
}

// New creates a cache bounded to maxEntries. Non-positive values fall back
// to a default of 1000 entries.
func New[V any](maxEntries int) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Cache[V]{
		maxEntries: maxEntries,
		entries:    make(map[domain.Fingerprint]*list.Element),
		order:      list.New(),
		now:        time.Now,
	}
}

// Get returns the cached value for key, or false on a miss. Expired entries
// are removed lazily on access and count as misses.
func (c *Cache[V]) Get(key domain.Fingerprint) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}

	ent := el.Value.(*entry[V])
	if ent.cacheEntry.Expired(c.now()) {
		c.order.Remove(el)
		delete(c.entries, key)
		c.misses++
		return zero, false
	}

	c.order.MoveToFront(el)
	ent.cacheEntry.AccessCount++
	c.hits++
	return ent.cacheEntry.Value, true
}

// Set inserts or replaces the value for key with the given TTL. When the
// cache is full, the least recently used entry is evicted first, before any
// TTL consideration.
func (c *Cache[V]) Set(key domain.Fingerprint, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if el, ok := c.entries[key]; ok {
		ent := el.Value.(*entry[V])
		ent.cacheEntry.Value = value
		ent.cacheEntry.CreatedAt = now
		ent.cacheEntry.ExpiresAt = now.Add(ttl)
		c.order.MoveToFront(el)
		return
	}

	for len(c.entries) >= c.maxEntries {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.order.Remove(back)
		delete(c.entries, back.Value.(*entry[V]).cacheEntry.Key)
	}

	el := c.order.PushFront(&entry[V]{cacheEntry: domain.CacheEntry[V]{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}})
	c.entries[key] = el
}

// Stats returns a snapshot of size and hit/miss counters. The hit rate is
// computed lazily and never persisted.
func (c *Cache[V]) Stats() domain.MemoryCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return domain.MemoryCacheStats{
		Size:    len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: rate,
	}
}

// Clear drops all entries. Counters are kept; they describe the session, not
// the current contents.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[domain.Fingerprint]*list.Element)
	c.order.Init()
}
