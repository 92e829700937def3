package cache

import (
	"context"
	"sync"
	"time"
)

// InMemoryAreaCache implements AreaCache using in-process storage.
// It is the default when Redis is not configured and also serves as
// L1 in front of the Redis cache.
type InMemoryAreaCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewInMemoryAreaCache creates an in-memory area cache
func NewInMemoryAreaCache() *InMemoryAreaCache {
	return &InMemoryAreaCache{
		entries: make(map[string]memoryEntry),
	}
}

var _ AreaCache = (*InMemoryAreaCache)(nil)

// Get returns the cached value when present and not expired
func (c *InMemoryAreaCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// Set stores the value with the given TTL
func (c *InMemoryAreaCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}

// Close releases cache resources
func (c *InMemoryAreaCache) Close() error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}
