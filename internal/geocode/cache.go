package geocode

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"
)

// Cached wraps a Geocoder with an in-memory LRU cache. Only positive
// results are cached, so a transient miss can be retried on the next
// lookup.
type Cached struct {
	inner Geocoder
	cache *lru
}

// NewCached creates a cache decorator around a geocoder.
func NewCached(inner Geocoder, maxEntries int) *Cached {
	return &Cached{inner: inner, cache: newLRU(maxEntries)}
}

func (c *Cached) Search(ctx context.Context, query string) (*Result, error) {
	key := "q:" + strings.ToLower(strings.TrimSpace(query))
	if res, ok := c.cache.get(key); ok {
		return res, nil
	}
	res, err := c.inner.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if res != nil {
		c.cache.put(key, res)
	}
	return res, nil
}

func (c *Cached) Reverse(ctx context.Context, lat, lon float64) (*Result, error) {
	key := fmt.Sprintf("rev:%.4f,%.4f", lat, lon)
	if res, ok := c.cache.get(key); ok {
		return res, nil
	}
	res, err := c.inner.Reverse(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	if res != nil {
		c.cache.put(key, res)
	}
	return res, nil
}

// lru is a thread-safe fixed-size LRU keyed by lookup string.
type lru struct {
	maxEntries int

	mu    sync.Mutex
	order *list.List // front is most recently used
	items map[string]*list.Element
}

type lruEntry struct {
	key   string
	value *Result
}

func newLRU(maxEntries int) *lru {
	return &lru{
		maxEntries: maxEntries,
		order:      list.New(),
		items:      make(map[string]*list.Element),
	}
}

func (c *lru) get(key string) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry).value, true
}

func (c *lru) put(key string, value *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*lruEntry).value = value
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&lruEntry{key: key, value: value})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*lruEntry).key)
		}
	}
}
