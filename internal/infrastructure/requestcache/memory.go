package requestcache

import (
	"encoding/json"
	"sync"

	"ledger_reporter/internal/port"
)

// MemoryCache is an in-memory RequestCache. It backs cache-less runs and
// test doubles; entries follow the same write-once contract as the disk
// implementation but live only for the process.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]json.RawMessage
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() port.RequestCache {
	return &MemoryCache{
		entries: make(map[string][]json.RawMessage),
	}
}

// Get returns the cached result set for (path, expand), if present.
func (c *MemoryCache) Get(path string, expand bool) ([]json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	records, ok := c.entries[cacheKey(path, expand)]
	return records, ok
}

// Put stores the result set for (path, expand) unless the key already holds
// one.
func (c *MemoryCache) Put(path string, expand bool, records []json.RawMessage) error {
	if records == nil {
		records = []json.RawMessage{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey(path, expand)
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = records
	}
	return nil
}
