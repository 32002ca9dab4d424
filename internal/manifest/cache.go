package manifest

import (
	"sort"
	"sync"
)

// Cache holds manifest listings by manifest key. Each key is replaced as a
// whole, so readers never observe a partially written listing.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]string
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string][]string)}
}

// Set replaces the listing for key.
func (c *Cache) Set(key string, files []string) {
	cp := make([]string, len(files))
	copy(cp, files)

	c.mu.Lock()
	c.entries[key] = cp
	c.mu.Unlock()
}

// Get returns a copy of the listing for key and whether the key was loaded.
func (c *Cache) Get(key string) ([]string, bool) {
	c.mu.RLock()
	files, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return []string{}, false
	}
	cp := make([]string, len(files))
	copy(cp, files)
	return cp, true
}

// Len is the number of loaded keys.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns the loaded keys, sorted.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Snapshot copies the whole cache.
func (c *Cache) Snapshot() map[string][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string][]string, len(c.entries))
	for k, v := range c.entries {
		cp := make([]string, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// Total counts every file across all keys.
func (c *Cache) Total() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, v := range c.entries {
		n += len(v)
	}
	return n
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string][]string)
	c.mu.Unlock()
}
