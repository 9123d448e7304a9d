package storage

import (
	"sync"
	"time"

	"github.com/giygas/rxu-api/metrics"
)

type cacheEntry struct {
	blob      *Blob
	expiresAt time.Time
}

// MemoryCache is the in-process tier in front of the durable ones.
// Entries expire ttl after they were stored.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached blob for key if it has not expired
func (c *MemoryCache) Get(key string) (*Blob, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(entry.expiresAt) {
		return nil, false
	}
	return entry.blob, true
}

func (c *MemoryCache) Set(blob *Blob) {
	if blob == nil || c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	c.entries[blob.Key] = cacheEntry{blob: blob, expiresAt: c.now().Add(c.ttl)}
	n := len(c.entries)
	c.mu.Unlock()

	metrics.StorageCacheEntries.Set(float64(n))
}

// Sweep drops expired entries and returns how many were removed
func (c *MemoryCache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	removed := 0
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	n := len(c.entries)
	c.mu.Unlock()

	metrics.StorageCacheEntries.Set(float64(n))
	return removed
}

// Len counts stored entries, expired ones included until the next sweep
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
