package cache

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/WessleyAI/carbrowse/pkg/fn"
	"github.com/WessleyAI/carbrowse/pkg/metrics"
)

// Loader reads through a Cache. Concurrent misses for one key share a single
// load, and only successful loads are stored.
type Loader[K comparable, V any] struct {
	cache  Cache[K, V]
	group  singleflight.Group
	hits   *metrics.Counter
	misses *metrics.Counter
}

// NewLoader wraps c. Hits and misses are counted under the given name.
func NewLoader[K comparable, V any](name string, c Cache[K, V], reg *metrics.Registry) *Loader[K, V] {
	if reg == nil {
		reg = metrics.New()
	}
	return &Loader[K, V]{
		cache:  c,
		hits:   reg.Counter(metrics.WithLabels("cache_hits_total", "cache", name), "Cache lookups served from memory"),
		misses: reg.Counter(metrics.WithLabels("cache_misses_total", "cache", name), "Cache lookups that needed a fetch"),
	}
}

// Load returns the cached value for key or calls load and caches its result.
func (l *Loader[K, V]) Load(ctx context.Context, key K, load func(context.Context, K) fn.Result[V]) fn.Result[V] {
	if v, ok := l.cache.Get(key); ok {
		l.hits.Inc()
		return fn.Ok(v)
	}
	l.misses.Inc()

	v, err, _ := l.group.Do(fmt.Sprint(key), func() (any, error) {
		if v, ok := l.cache.Get(key); ok {
			return v, nil
		}
		val, err := load(ctx, key).Unwrap()
		if err != nil {
			return nil, err
		}
		l.cache.Set(key, val)
		return val, nil
	})
	if err != nil {
		return fn.Err[V](err)
	}
	return fn.Ok(v.(V))
}

// Peek returns the cached value without loading.
func (l *Loader[K, V]) Peek(key K) (V, bool) {
	return l.cache.Get(key)
}

// Len is the number of cached keys.
func (l *Loader[K, V]) Len() int { return l.cache.Len() }
