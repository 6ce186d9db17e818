package reconcile

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// IndexLoader loads the known albums, artists and genres of one owner.
type IndexLoader interface {
	LoadIndex(ctx context.Context, ownerID string) (*Known, error)
}

// IndexLoaderFunc adapts a function to the IndexLoader interface.
type IndexLoaderFunc func(ctx context.Context, ownerID string) (*Known, error)

// LoadIndex calls f(ctx, ownerID).
func (f IndexLoaderFunc) LoadIndex(ctx context.Context, ownerID string) (*Known, error) {
	return f(ctx, ownerID)
}

// cachedIndex is one loaded Known index with its build time.
type cachedIndex struct {
	known *Known
	built time.Time
}

// IndexCache caches known-entity indices per owner.
// Existing tracks are never cached: the Reconciler mutates that map.
type IndexCache struct {
	loader IndexLoader
	ttl    time.Duration

	mu      sync.RWMutex
	entries map[string]cachedIndex
	sf      singleflight.Group
}

// NewIndexCache creates a cache. A zero TTL disables caching.
func NewIndexCache(loader IndexLoader, ttl time.Duration) *IndexCache {
	return &IndexCache{
		loader:  loader,
		ttl:     ttl,
		entries: make(map[string]cachedIndex),
	}
}

func (c *IndexCache) expired(e cachedIndex) bool {
	if c.ttl == 0 {
		return true
	}
	return time.Since(e.built) > c.ttl
}

// Get returns the index for ownerID, loading it when absent or expired.
// Concurrent misses for the same owner share one load.
func (c *IndexCache) Get(ctx context.Context, ownerID string) (*Known, error) {
	c.mu.RLock()
	entry, ok := c.entries[ownerID]
	c.mu.RUnlock()
	if ok && !c.expired(entry) {
		return entry.known, nil
	}

	result, err, _ := c.sf.Do(ownerID, func() (interface{}, error) {
		c.mu.RLock()
		entry, ok := c.entries[ownerID]
		c.mu.RUnlock()
		if ok && !c.expired(entry) {
			return entry.known, nil
		}

		known, err := c.loader.LoadIndex(ctx, ownerID)
		if err != nil {
			return nil, err
		}

		if c.ttl > 0 {
			c.mu.Lock()
			c.entries[strings.Clone(ownerID)] = cachedIndex{known: known, built: time.Now()}
			c.mu.Unlock()
		}
		return known, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*Known), nil
}

// Invalidate drops the cached index for ownerID.
func (c *IndexCache) Invalidate(ownerID string) {
	c.mu.Lock()
	delete(c.entries, ownerID)
	c.mu.Unlock()
}
