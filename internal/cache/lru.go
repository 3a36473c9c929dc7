package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRUCache is a size-bounded cache with TTL expiry. Entries created through
// GetOrCreate use sliding expiry: every access pushes the deadline out.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time
	onEvict func(key string, data T)
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

var _ Cache[int] = (*LRUCache[int])(nil)

// NewLRUCache creates a new LRU cache with TTL
func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (c *LRUCache[T]) WithClock(now func() time.Time) *LRUCache[T] {
	c.now = now
	return c
}

// OnEvict registers a callback invoked (under the cache lock) when an entry
// is dropped for capacity or expiry.
func (c *LRUCache[T]) OnEvict(fn func(key string, data T)) *LRUCache[T] {
	c.onEvict = fn
	return c
}

// Get retrieves a value from the cache
func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, exists := c.items[key]
	if !exists {
		return zero, false
	}

	item := elem.Value.(*cacheItem[T])
	if c.now().After(item.expiresAt) {
		c.evict(elem)
		return zero, false
	}

	c.lru.MoveToFront(elem)
	return item.data, true
}

// GetOrCreate returns the live entry for key, creating it with create when
// absent or expired. The entry's expiry is renewed on every call.
func (c *LRUCache[T]) GetOrCreate(key string, create func() T) T {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if elem, exists := c.items[key]; exists {
		item := elem.Value.(*cacheItem[T])
		if !now.After(item.expiresAt) {
			item.expiresAt = now.Add(c.ttl)
			c.lru.MoveToFront(elem)
			return item.data
		}
		c.evict(elem)
	}

	data := create()
	c.insert(key, data, now)
	return data
}

// Set stores a value in the cache
func (c *LRUCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if elem, exists := c.items[key]; exists {
		elem.Value = &cacheItem[T]{key: key, data: data, expiresAt: now.Add(c.ttl)}
		c.lru.MoveToFront(elem)
		return
	}
	c.insert(key, data, now)
}

func (c *LRUCache[T]) insert(key string, data T, now time.Time) {
	elem := c.lru.PushFront(&cacheItem[T]{key: key, data: data, expiresAt: now.Add(c.ttl)})
	c.items[key] = elem

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.evict(oldest)
		}
	}
}

// Delete removes a key from the cache
func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
	}
}

func (c *LRUCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

func (c *LRUCache[T]) evict(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	c.removeElement(elem)
	if c.onEvict != nil {
		c.onEvict(item.key, item.data)
	}
}

// CleanExpired removes all expired entries and returns count of removed items
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var toRemove []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*cacheItem[T]).expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.evict(elem)
	}
	return len(toRemove)
}

// Size returns the current number of items in the cache
func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
