package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryCache implements Cache using in-memory storage. It lives as long as the process, which
// makes it useful for watch mode.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]Entry
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string]Entry),
	}
}

// Get retrieves a value from the cache.
func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.items[key]
	if !ok || entry.IsExpired() {
		return nil, false
	}
	return slices.Clone(entry.Value), true
}

// Set stores a value in the cache with the given TTL.
func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = newEntry(slices.Clone(value), ttl)
}

// Delete removes a value from the cache.
func (m *MemoryCache) Delete(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
}

// Clear removes all values from the cache.
func (m *MemoryCache) Clear(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string]Entry)
}

// Len returns the number of items in the cache (including expired).
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.items)
}

// Prune removes expired entries.
func (m *MemoryCache) Prune(_ context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, entry := range m.items {
		if entry.IsExpired() {
			delete(m.items, key)
			removed++
		}
	}
	return removed
}

var (
	_ Cache  = (*MemoryCache)(nil)
	_ Pruner = (*MemoryCache)(nil)
)
