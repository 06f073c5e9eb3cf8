package reconcile

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CachedIndex is a built index together with its build time.
type CachedIndex struct {
	// Index is the identifier-to-record map of one source.
	Index Index

	// Stats describes how the index was built.
	Stats IndexStats

	// Built is the timestamp when this index was built.
	Built time.Time

	// TTL is the time-to-live for this entry.
	TTL time.Duration
}

// IsExpired returns true if this entry has expired based on its TTL.
func (c *CachedIndex) IsExpired() bool {
	if c.TTL == 0 {
		return true // No caching
	}
	return time.Since(c.Built) > c.TTL
}

// BuildFunc loads and indexes one source.
type BuildFunc func(ctx context.Context) (Index, IndexStats, error)

// Cache holds built indices keyed by source key (e.g. "bucket/object").
// Cached indices are shared between callers and must not be modified.
type Cache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]*CachedIndex
	sf      singleflight.Group
}

// NewCache creates a cache with the given TTL. A zero TTL disables caching:
// every lookup rebuilds.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]*CachedIndex),
	}
}

// GetOrBuild returns the cached index for key, or builds and stores a new one
// if it doesn't exist or has expired.
// Uses singleflight to prevent concurrent builds of the same key.
func (c *Cache) GetOrBuild(ctx context.Context, key string, build BuildFunc) (*CachedIndex, error) {
	// Fast path: check if entry exists and is fresh
	if entry := c.lookup(key); entry != nil {
		return entry, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Double-check after acquiring singleflight lock
		if entry := c.lookup(key); entry != nil {
			return entry, nil
		}

		index, stats, err := build(ctx)
		if err != nil {
			return nil, err
		}

		entry := &CachedIndex{
			Index: index,
			Stats: stats,
			Built: time.Now(),
			TTL:   c.ttl,
		}

		if c.ttl > 0 {
			c.mu.Lock()
			c.entries[key] = entry
			c.mu.Unlock()
		}

		return entry, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*CachedIndex), nil
}

func (c *Cache) lookup(key string) *CachedIndex {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if exists && !entry.IsExpired() {
		return entry
	}
	return nil
}

// Invalidate removes the entry for key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
