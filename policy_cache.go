package envelope

import "sync"

// ProgramCache stores compiled policy programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// NewMemoryCache returns a ProgramCache backed by an in-process map, safe for
// concurrent use.
func NewMemoryCache() ProgramCache {
	return &memoryCache{entries: make(map[string]any)}
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]any
}

func (c *memoryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[key]
	return value, ok
}

func (c *memoryCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}
