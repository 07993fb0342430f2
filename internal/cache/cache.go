// Package cache provides the process-wide result cache fronting the
// engine's expensive aggregation entry points. Entries are keyed by
// (user, operation, parameters) and served only within a fixed TTL.
//
// The cache deliberately does not coalesce in-flight identical requests:
// concurrent misses for the same key each pay the full computation cost
// and the last writer wins. There is also no cross-process coordination;
// incoherence between processes is an accepted limitation.
package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long a completed result stays servable.
const DefaultTTL = 30 * time.Minute

// Clock supplies the current time. Injectable for deterministic TTL tests.
type Clock func() time.Time

type entry struct {
	data     any
	storedAt time.Time
}

// Cache is a TTL-bounded memoization map safe for concurrent use.
type Cache struct {
	ttl time.Duration
	now Clock

	mu      sync.RWMutex
	entries map[string]entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now Clock) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache with the given TTL. A non-positive TTL falls back to
// DefaultTTL.
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds a cache key scoped to one user. The userID segment leads so
// targeted invalidation can match on it.
func Key(userID, op string, params ...string) string {
	parts := append([]string{userID, op}, params...)
	return strings.Join(parts, "|")
}

// Get returns the cached value for key if it was stored within the TTL.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		return nil, false
	}
	return e.data, true
}

// Set stores a value, overwriting any previous entry for the key.
func (c *Cache) Set(key string, data any) {
	c.mu.Lock()
	c.entries[key] = entry{data: data, storedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate removes every entry belonging to one user.
func (c *Cache) Invalidate(userID string) {
	prefix := userID + "|"
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// InvalidateAll removes every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
