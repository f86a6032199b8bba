package services

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// TTLCache memoises remote lookups per key for a bounded time. Concurrent
// misses for the same key share one fetch.
type TTLCache[V any] struct {
	entries *expirable.LRU[string, V]
	group   singleflight.Group
}

func NewTTLCache[V any](size int, ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{entries: expirable.NewLRU[string, V](size, nil, ttl)}
}

// GetOrFetch returns the cached value for key, calling fetch on a miss.
// Errors are not cached.
func (c *TTLCache[V]) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := c.entries.Get(key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.entries.Get(key); ok {
			return v, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Invalidate drops key so the next read fetches again.
func (c *TTLCache[V]) Invalidate(key string) {
	c.group.Forget(key)
	c.entries.Remove(key)
}
