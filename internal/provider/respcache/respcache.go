// Package respcache is the per-provider response cache sitting inside
// the fetch pipeline. A cache hit bypasses rate limiting and retries
// entirely, so a vendor's quota is only spent on cold requests.
package respcache

import (
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a TTL map with lazy expiry. Expired entries are dropped on
// access; a size cap evicts the oldest-expiring entries on overflow.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	items   map[string]entry
	now     func() time.Time
}

// New builds a cache with the given TTL and entry cap. A non-positive
// cap means unbounded.
func New(ttl time.Duration, maxSize int) *Cache {
	return &Cache{
		ttl:     ttl,
		maxSize: maxSize,
		items:   make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached value when present and fresh.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.items, key)
		return nil, false
	}
	return e.value, true
}

// Set stores a value under key with the cache's TTL.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && len(c.items) >= c.maxSize {
		if _, exists := c.items[key]; !exists {
			c.evictLocked()
		}
	}
	c.items[key] = entry{value: value, expiresAt: c.now().Add(c.ttl)}
}

// evictLocked removes expired entries first, then the entry closest to
// expiry if nothing has expired yet.
func (c *Cache) evictLocked() {
	now := c.now()
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
		}
	}
	if c.maxSize <= 0 || len(c.items) < c.maxSize {
		return
	}
	var oldest string
	var oldestAt time.Time
	for k, e := range c.items {
		if oldest == "" || e.expiresAt.Before(oldestAt) {
			oldest, oldestAt = k, e.expiresAt
		}
	}
	delete(c.items, oldest)
}

// Delete removes one entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len reports the number of stored entries, including not-yet-swept
// expired ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Flush drops everything.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]entry)
}
