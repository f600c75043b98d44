// Package cache memoizes expensive upstream lookups in memory.
//
// A [Cache] wraps one lookup function. Results are kept for a fixed TTL in
// a bounded LRU; failed lookups are never stored. Concurrent misses for the
// same key share a single call to the lookup function.
//
//	releases := cache.New("releases", client.Releases, cache.Options{
//	    TTL:      10 * time.Minute,
//	    Capacity: 500,
//	})
//	rs, err := releases.Get(ctx, "serde")
//
// A caller whose context is cancelled stops waiting, but the lookup it
// started keeps running and still stores its result for later callers.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/depstatus/pkg/observability"
)

// FetchFunc computes the value for key on a cache miss.
type FetchFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Options configures a Cache.
type Options struct {
	TTL      time.Duration // Entry lifetime; zero keeps entries until evicted
	Capacity int           // Maximum entries; zero means unbounded
}

// Cache is a TTL+LRU memoizing wrapper around a FetchFunc. It is safe for
// concurrent use. Keys are coalesced by their fmt.Sprint form, which must
// therefore be unique per key.
type Cache[K comparable, V any] struct {
	name  string
	fetch FetchFunc[K, V]
	lru   *expirable.LRU[K, V]
	group singleflight.Group
}

// New returns a Cache named name that fills misses with fetch. The name
// labels observability events.
func New[K comparable, V any](name string, fetch FetchFunc[K, V], opts Options) *Cache[K, V] {
	return &Cache[K, V]{
		name:  name,
		fetch: fetch,
		lru:   expirable.NewLRU[K, V](opts.Capacity, nil, opts.TTL),
	}
}

// Name returns the name the cache was created with.
func (c *Cache[K, V]) Name() string { return c.name }

// Get returns the cached value for key, calling the fetch function on a
// miss. Errors are returned to every waiting caller and not cached.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, error) {
	hooks := observability.Cache()
	if v, ok := c.lru.Get(key); ok {
		hooks.OnCacheHit(ctx, c.name)
		return v, nil
	}
	hooks.OnCacheMiss(ctx, c.name)

	// The flight outlives callers that give up; its result is still stored.
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(fmt.Sprint(key), func() (any, error) {
		// A flight that finished between the lookup above and this one
		// already stored the value.
		if v, ok := c.lru.Peek(key); ok {
			return v, nil
		}
		v, err := c.fetch(detached, key)
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, v)
		hooks.OnCacheSet(detached, c.name, c.lru.Len())
		return v, nil
	})

	var zero V
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Purge drops every entry.
func (c *Cache[K, V]) Purge() { c.lru.Purge() }

// Len returns the number of live entries.
func (c *Cache[K, V]) Len() int { return c.lru.Len() }
