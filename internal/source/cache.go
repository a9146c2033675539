package source

import (
	"context"
	"sync"
	"time"

	"github.com/JonMunkholm/sheetfilter/internal/core"
	"golang.org/x/sync/singleflight"
)

// Entry is a normalized table held by the cache.
type Entry struct {
	Key      string
	Label    string
	Table    core.Table
	Kinds    core.Kinds
	LoadedAt time.Time
}

// LoadFunc produces a fresh entry for a key. Its context carries the values
// of the first caller but is never canceled, so a LoadFunc must bound its own
// duration.
type LoadFunc func(ctx context.Context) (Entry, error)

// Cache holds one entry per source descriptor key.
//
// Concurrent loads of the same key share one fetch. A caller that gives up
// does not cancel the fetch for the others. A failed load never removes an
// existing entry, and entries are only dropped by Invalidate, TTL reloads or
// the maxEntries bound.
type Cache struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.RWMutex
	entries map[string]Entry
	pinned  map[string]bool

	group singleflight.Group
}

// NewCache creates a cache. ttl of zero keeps entries until invalidated;
// maxEntries of zero means unbounded.
func NewCache(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]Entry),
		pinned:     make(map[string]bool),
	}
}

// Peek returns the entry for key without loading, fresh or not.
func (c *Cache) Peek(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// Get returns the cached entry for key, loading it on a miss or expiry.
//
// When a reload of an expired entry fails, the stale entry is returned along
// with the error.
func (c *Cache) Get(ctx context.Context, key string, load LoadFunc) (Entry, error) {
	if e, ok := c.Peek(key); ok && c.fresh(e) {
		return e, nil
	}
	return c.load(ctx, key, load)
}

// Refresh reloads key unconditionally. On failure the prior entry, if any,
// is kept and returned with the error.
func (c *Cache) Refresh(ctx context.Context, key string, load LoadFunc) (Entry, error) {
	return c.load(ctx, key, load)
}

// Invalidate drops the entry for key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Pin exempts key from maxEntries eviction.
func (c *Cache) Pin(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pinned[key] = true
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) fresh(e Entry) bool {
	return c.ttl <= 0 || c.now().Sub(e.LoadedAt) < c.ttl
}

func (c *Cache) load(ctx context.Context, key string, load LoadFunc) (Entry, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		e, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		e.Key = key
		if e.LoadedAt.IsZero() {
			e.LoadedAt = c.now()
		}
		c.put(e)
		return e, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			prior, _ := c.Peek(key)
			return prior, res.Err
		}
		return res.Val.(Entry), nil
	case <-ctx.Done():
		prior, _ := c.Peek(key)
		return prior, ctx.Err()
	}
}

func (c *Cache) put(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[e.Key] = e
	if c.maxEntries <= 0 {
		return
	}
	for len(c.entries) > c.maxEntries {
		oldest := ""
		for k, v := range c.entries {
			if k == e.Key || c.pinned[k] {
				continue
			}
			if oldest == "" || v.LoadedAt.Before(c.entries[oldest].LoadedAt) {
				oldest = k
			}
		}
		if oldest == "" {
			return
		}
		delete(c.entries, oldest)
	}
}
