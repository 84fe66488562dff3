// Package cache holds the session-scoped caches for the car hierarchy and
// the hover prefetcher that warms them.
package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is a keyed store of fetched values.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, val V)
	Has(key K) bool
	Len() int
}

// Map is an unbounded Cache. Entries live until the process exits.
type Map[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// NewMap creates an empty Map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{m: make(map[K]V)}
}

func (c *Map[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *Map[K, V]) Set(key K, val V) {
	c.mu.Lock()
	c.m[key] = val
	c.mu.Unlock()
}

func (c *Map[K, V]) Has(key K) bool {
	_, ok := c.Get(key)
	return ok
}

func (c *Map[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// LRU is a size-bounded Cache that evicts the least recently used entry.
type LRU[K comparable, V any] struct {
	c *lru.Cache[K, V]
}

// NewLRU creates an LRU holding at most size entries.
func NewLRU[K comparable, V any](size int) (*LRU[K, V], error) {
	c, err := lru.New[K, V](size)
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{c: c}, nil
}

func (l *LRU[K, V]) Get(key K) (V, bool) { return l.c.Get(key) }
func (l *LRU[K, V]) Set(key K, val V)    { l.c.Add(key, val) }
func (l *LRU[K, V]) Has(key K) bool      { return l.c.Contains(key) }
func (l *LRU[K, V]) Len() int            { return l.c.Len() }

// New returns an LRU when size > 0 and an unbounded Map otherwise.
func New[K comparable, V any](size int) (Cache[K, V], error) {
	if size <= 0 {
		return NewMap[K, V](), nil
	}
	return NewLRU[K, V](size)
}
