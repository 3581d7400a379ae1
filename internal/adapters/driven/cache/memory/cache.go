// Package memory provides a bounded in-process embedding cache.
package memory

import (
	"container/list"
	"context"
	"sync"

	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.EmbeddingCache = (*Cache)(nil)

// DefaultMaxEntries bounds the cache when no size is given.
const DefaultMaxEntries = 10000

type entry struct {
	key    string
	vector []float32
}

// Cache is a least-recently-used vector cache.
type Cache struct {
	mu      sync.Mutex
	max     int
	order   *list.List
	entries map[string]*list.Element
}

// New creates a cache holding at most maxEntries vectors.
func New(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		max:     maxEntries,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

func key(model, text string) string {
	return model + "\x00" + text
}

// Get returns a copy of the cached vector.
func (c *Cache) Get(_ context.Context, model, text string) ([]float32, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key(model, text)]
	if !ok {
		return nil, false, nil
	}
	c.order.MoveToFront(el)
	v := el.Value.(*entry).vector
	return append([]float32(nil), v...), true, nil
}

// Set stores a copy of the vector, evicting the oldest entry when full.
func (c *Cache) Set(_ context.Context, model, text string, vector []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key(model, text)
	v := append([]float32(nil), vector...)
	if el, ok := c.entries[k]; ok {
		el.Value.(*entry).vector = v
		c.order.MoveToFront(el)
		return nil
	}

	c.entries[k] = c.order.PushFront(&entry{key: k, vector: v})
	if c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}
	return nil
}

// Len returns the number of cached vectors.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Close releases resources.
func (c *Cache) Close() error {
	return nil
}
