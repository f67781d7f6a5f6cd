package usage

import (
	"sync"
	"time"
)

// Cache is a TTL counter store. Implementations must be safe for concurrent
// use.
type Cache interface {
	// Get returns the current value and whether the key is live.
	Get(key string) (int64, bool)
	// Increment adds one to the key and returns the new value. A new or
	// expired key restarts at 1 with the given ttl.
	Increment(key string, ttl time.Duration) int64
}

type entry struct {
	value     int64
	expiresAt time.Time
}

// MemoryCache is an in-process Cache. Expired entries are dropped lazily on
// access and in a periodic sweep.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(key string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return 0, false
	}
	return e.value, true
}

func (c *MemoryCache) Increment(key string, ttl time.Duration) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e, ok := c.entries[key]
	if !ok || now.After(e.expiresAt) {
		e = entry{value: 0, expiresAt: now.Add(ttl)}
	}
	e.value++
	c.entries[key] = e
	return e.value
}

// Sweep removes all expired entries. Callers decide the cadence.
func (c *MemoryCache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
