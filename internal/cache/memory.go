package cache

import (
	"sync"

	"remedy/internal/fix"
	"remedy/internal/source"
)

// MemoryCache is a per-process fix.ResultCache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[source.Digest]fix.CachedResult
}

// NewMemoryCache creates a MemoryCache with the given capacity hint.
func NewMemoryCache(capHint int) *MemoryCache {
	return &MemoryCache{entries: make(map[source.Digest]fix.CachedResult, capHint)}
}

func (c *MemoryCache) Get(key source.Digest) (fix.CachedResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *MemoryCache) Put(key source.Digest, entry fix.CachedResult) error {
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Layered reads from the first cache that has the key and writes to all.
type Layered []fix.ResultCache

func (l Layered) Get(key source.Digest) (fix.CachedResult, bool) {
	for i, c := range l {
		if e, ok := c.Get(key); ok {
			// прогреваем верхние уровни
			for _, up := range l[:i] {
				_ = up.Put(key, e)
			}
			return e, true
		}
	}
	return fix.CachedResult{}, false
}

func (l Layered) Put(key source.Digest, entry fix.CachedResult) error {
	var first error
	for _, c := range l {
		if err := c.Put(key, entry); err != nil && first == nil {
			first = err
		}
	}
	return first
}
