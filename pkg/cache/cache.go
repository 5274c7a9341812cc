package cache

import (
	"container/list"
	"sync"

	"github.com/AI-READI/fairhub-pipeline-sub000/errors"
)

// EvictCallback is invoked when an entry leaves the cache, whether evicted by
// capacity or deleted explicitly.
type EvictCallback[V any] func(key string, value V)

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Evictions int64
	Size      int
}

type cacheEntry[V any] struct {
	key   string
	value V
}

// Cache is a thread-safe LRU cache. The least recently used entry is evicted
// when the capacity is exceeded.
type Cache[V any] struct {
	mu       sync.RWMutex
	capacity int
	items    map[string]*list.Element
	order    *list.List // front = most recently used
	evictFn  EvictCallback[V]

	hits      int64
	misses    int64
	sets      int64
	evictions int64
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithEvictCallback registers a callback invoked outside the cache lock for
// every entry that leaves the cache.
func WithEvictCallback[V any](fn EvictCallback[V]) Option[V] {
	return func(c *Cache[V]) {
		c.evictFn = fn
	}
}

// New builds an LRU cache holding at most capacity entries.
func New[V any](capacity int, opts ...Option[V]) (*Cache[V], error) {
	if capacity <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Cache", "New",
			"capacity must be positive")
	}
	c := &Cache[V]{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get retrieves a value and marks it most recently used.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.items[key]
	if !ok {
		var zero V
		c.misses++
		return zero, false
	}

	c.order.MoveToFront(element)
	c.hits++
	return element.Value.(*cacheEntry[V]).value, true
}

// Set stores a value, evicting the least recently used entry when the cache
// is full. Returns true when the key was new.
func (c *Cache[V]) Set(key string, value V) bool {
	if key == "" {
		return false
	}

	var evicted *cacheEntry[V]

	c.mu.Lock()
	c.sets++

	if element, ok := c.items[key]; ok {
		element.Value.(*cacheEntry[V]).value = value
		c.order.MoveToFront(element)
		c.mu.Unlock()
		return false
	}

	c.items[key] = c.order.PushFront(&cacheEntry[V]{key: key, value: value})
	if len(c.items) > c.capacity {
		if element := c.order.Back(); element != nil {
			evicted = element.Value.(*cacheEntry[V])
			delete(c.items, evicted.key)
			c.order.Remove(element)
			c.evictions++
		}
	}
	c.mu.Unlock()

	// Callback runs outside the lock so it may touch the cache.
	if evicted != nil && c.evictFn != nil {
		c.evictFn(evicted.key, evicted.value)
	}
	return true
}

// Delete removes an entry. Returns true when the key was present.
func (c *Cache[V]) Delete(key string) bool {
	var removed *cacheEntry[V]

	c.mu.Lock()
	element, ok := c.items[key]
	if ok {
		removed = element.Value.(*cacheEntry[V])
		delete(c.items, key)
		c.order.Remove(element)
	}
	c.mu.Unlock()

	if removed != nil && c.evictFn != nil {
		c.evictFn(removed.key, removed.value)
	}
	return ok
}

// Clear empties the cache without invoking eviction callbacks.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// Len returns the current number of entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats snapshots cache activity counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Sets:      c.sets,
		Evictions: c.evictions,
		Size:      len(c.items),
	}
}
