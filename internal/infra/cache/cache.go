// Package cache holds a generic in-memory TTL cache. Cardwise uses it
// to keep the assembled ledger snapshot warm between recommendation
// requests; any write that touches the ledger drops the entry.
package cache

import (
	"sync"
	"time"
)

type cached[T any] struct {
	value   T
	staleAt time.Time
}

// InMemory is a thread-safe TTL cache. All entries share one TTL,
// fixed at construction.
type InMemory[T any] struct {
	mu    sync.RWMutex
	items map[string]cached[T]
	ttl   time.Duration
}

// New creates a cache whose entries expire after ttl. A background
// goroutine sweeps stale entries so abandoned keys don't pile up.
func New[T any](ttl time.Duration) *InMemory[T] {
	c := &InMemory[T]{
		items: make(map[string]cached[T]),
		ttl:   ttl,
	}
	go c.sweep()
	return c
}

// Get returns the cached value, or false when the key is missing or
// already past its TTL.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(e.staleAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value under key, restarting its TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = cached[T]{value: value, staleAt: time.Now().Add(c.ttl)}
}

// Delete drops a key. Deleting a missing key is a no-op.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

func (c *InMemory[T]) sweep() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for k, e := range c.items {
			if now.After(e.staleAt) {
				delete(c.items, k)
			}
		}
		c.mu.Unlock()
	}
}
