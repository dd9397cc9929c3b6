package cache

import (
	"sync"
	"time"
)

// Cache is a small in-process TTL cache. Listing responses are stored
// per identity key and flushed wholesale on any post mutation.
type Cache struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]item
}

type item struct {
	val       any
	expiresAt time.Time
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl: ttl,
		m:   make(map[string]item),
	}
}

func (c *Cache) Get(key string) (any, bool) {
	now := time.Now()

	c.mu.RLock()
	it, ok := c.m[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if now.After(it.expiresAt) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}

	return it.val, true
}

func (c *Cache) Set(key string, val any) {
	c.mu.Lock()
	c.m[key] = item{val: val, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

// Flush drops every entry. Cheap enough at this scale; saves tracking
// which identities have a stale listing.
func (c *Cache) Flush() {
	c.mu.Lock()
	c.m = make(map[string]item)
	c.mu.Unlock()
}
