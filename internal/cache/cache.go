// Package cache implements the bounded, TTL-aware entity cache used by the
// IR's Cache(max_age, io) wrapper (spec §4.A, §4.C "Cache key", §7 "Cache").
// Spec.md is explicit that any bounded key→value store with TTL suffices;
// this is a minimal in-process implementation behind the Store interface so
// a durable implementation can be swapped in without touching the core.
package cache

import (
	"sync"
	"time"
)

// Store is the contract the resolver IR's Cache node consults. Get reports
// a miss both when the key is absent and when it has expired; writers are
// safe under contention and stale writes are acceptable (spec §5
// "last-writer-wins").
type Store interface {
	Get(key uint64) (value []byte, ok bool)
	Set(key uint64, value []byte, ttl time.Duration)
}

type entry struct {
	value   []byte
	expires time.Time
}

// InMemory is a sync.RWMutex-guarded map with lazy expiry, following the
// teacher's concurrency discipline for shared, contended state
// (internal/eventbus.Bus uses the same RWMutex-guarded-map shape).
type InMemory struct {
	mu      sync.RWMutex
	entries map[uint64]entry
	// maxEntries bounds memory use; 0 means unbounded. On overflow the
	// store evicts an arbitrary entry (map iteration order), which is
	// acceptable because cache misses are always safe to recover from
	// (spec §7 "Cache: logged, treated as a miss; never surfaced").
	maxEntries int
}

// NewInMemory constructs a bounded in-process Store. maxEntries <= 0 means
// unbounded.
func NewInMemory(maxEntries int) *InMemory {
	return &InMemory{entries: make(map[uint64]entry), maxEntries: maxEntries}
}

var _ Store = (*InMemory)(nil)

func (c *InMemory) Get(key uint64) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

func (c *InMemory) Set(key uint64, value []byte, ttl time.Duration) {
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[key]; !exists {
			for k := range c.entries {
				delete(c.entries, k)
				break
			}
		}
	}
	c.entries[key] = entry{value: value, expires: expires}
}
