package lib

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type cacheEntry[V any] struct {
	value      V
	expiration time.Time
}

// Cache is an in-memory map whose entries expire after a TTL.
// Expired entries are evicted lazily on access.
type Cache[V any] struct {
	logger  *zerolog.Logger
	entries map[string]cacheEntry[V]
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
}

func NewCache[V any](ttl time.Duration, logger *zerolog.Logger) *Cache[V] {
	return &Cache[V]{
		logger:  logger,
		entries: make(map[string]cacheEntry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !exists {
		return zero, false
	}

	if c.now().After(entry.expiration) {
		c.Delete(key)
		return zero, false
	}

	c.logger.Trace().
		Str("key", key).
		Msg("cache hit")

	return entry.value, true
}

func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value that expires after ttl instead of the cache default.
// A non-positive ttl falls back to the default.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry[V]{
		value:      value,
		expiration: c.now().Add(ttl),
	}
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry[V])
}

// Len counts entries that have not expired yet.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	n := 0
	for _, e := range c.entries {
		if !now.After(e.expiration) {
			n++
		}
	}
	return n
}
