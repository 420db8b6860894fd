package query

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a thread-safe LRU cache whose entries go stale after a fixed
// freshness window. Stale entries are treated as absent.
type Cache[V any] struct {
	size      int
	freshness time.Duration
	now       func() time.Time
	evictList *list.List
	items     map[string]*list.Element
	mu        sync.Mutex
}

// entry is stored in the cache
type entry[V any] struct {
	key       string
	value     V
	fetchedAt time.Time
}

// NewCache creates a cache holding at most size entries, each served for at
// most freshness after it was stored
func NewCache[V any](size int, freshness time.Duration) *Cache[V] {
	if size <= 0 {
		size = 1
	}
	return &Cache[V]{
		size:      size,
		freshness: freshness,
		now:       time.Now,
		evictList: list.New(),
		items:     make(map[string]*list.Element),
	}
}

// Get retrieves a fresh value from the cache
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	node, exists := c.items[key]
	if !exists {
		return zero, false
	}

	ent := node.Value.(*entry[V])
	if c.now().Sub(ent.fetchedAt) > c.freshness {
		c.removeElement(node)
		return zero, false
	}

	// Move to front (most recently used)
	c.evictList.MoveToFront(node)
	return ent.value, true
}

// Put adds or replaces a value, restarting its freshness window
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if node, exists := c.items[key]; exists {
		c.evictList.MoveToFront(node)
		ent := node.Value.(*entry[V])
		ent.value = value
		ent.fetchedAt = now
		return
	}

	node := c.evictList.PushFront(&entry[V]{key: key, value: value, fetchedAt: now})
	c.items[key] = node

	if c.evictList.Len() > c.size {
		if oldest := c.evictList.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

func (c *Cache[V]) removeElement(node *list.Element) {
	c.evictList.Remove(node)
	delete(c.items, node.Value.(*entry[V]).key)
}

// Clear removes all items from the cache
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.evictList.Init()
}

// Len returns the number of items in the cache, stale ones included
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.evictList.Len()
}
