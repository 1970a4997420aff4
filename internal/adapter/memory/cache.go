package memory

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	data    []byte
	expires time.Time
}

// Cache is a map-backed cache for development and tests. Entries expire
// lazily on read; there is no background eviction.
type Cache struct {
	mu sync.RWMutex
	m  map[string]entry
}

// NewCache creates an empty in-memory cache.
func NewCache() *Cache {
	return &Cache{m: map[string]entry{}}
}

// Get retrieves a value, dropping it when expired.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.data, true, nil
}

// Set stores a value. A zero ttl means no expiry.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{data: value}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.m[key] = e
	c.mu.Unlock()
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
	return nil
}

// Clear drops every entry.
func (c *Cache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.m = map[string]entry{}
	c.mu.Unlock()
	return nil
}
