// Package cache memoizes the final video selection per track so repeated
// load events for the same song never hit the search API twice.
package cache

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned by stores for keys with no persisted selection.
var ErrNotFound = errors.New("cache: not found")

// Store is an optional persistent layer behind the in-memory cache.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, videoID string) error
}

// Key derives the cache key for a track. Exact and case-sensitive: two tracks
// that collide on this string share a selection (known, accepted ambiguity).
func Key(title, artist string) string {
	return title + "-" + artist
}

// Cache maps track keys to previously selected video ids. Lookups for the
// same key are collapsed to a single in-flight compute; failed lookups are
// never cached, so the next load event searches again.
type Cache struct {
	mu      sync.Mutex
	entries map[string]string
	group   singleflight.Group
	store   Store
}

// New builds a cache. store may be nil for memory-only operation.
func New(store Store) *Cache {
	return &Cache{
		entries: make(map[string]string),
		store:   store,
	}
}

// GetOrCompute returns the cached video id for key, or runs compute to
// produce one. An empty id means "no match": it is returned to the caller
// but not cached. Errors from compute are propagated and not cached.
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (string, error)) (string, error) {
	c.mu.Lock()
	if id, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		if c.store != nil {
			if id, err := c.store.Get(ctx, key); err == nil && id != "" {
				c.remember(key, id)
				return id, nil
			} else if err != nil && !errors.Is(err, ErrNotFound) {
				// Persistent layer trouble is not fatal for a lookup.
				logf("cache: store get %q: %v", key, err)
			}
		}

		id, err := compute(ctx)
		if err != nil {
			return "", err
		}
		if id == "" {
			return "", nil
		}
		c.remember(key, id)
		if c.store != nil {
			if err := c.store.Set(ctx, key, id); err != nil {
				logf("cache: store set %q: %v", key, err)
			}
		}
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Cache) remember(key, id string) {
	c.mu.Lock()
	c.entries[key] = id
	c.mu.Unlock()
}

// Len reports the number of memoized selections.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
