package imagecache

import "container/list"

// lruCache is a strict least-recently-used cache bounded by entry count.
// It is not safe for concurrent use; the owning store provides locking.
type lruCache[K comparable, V any] struct {
	capacity int
	items    map[K]*list.Element
	order    *list.List
	onEvict  func(K, V)
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

func newLRUCache[K comparable, V any](capacity int, onEvict func(K, V)) *lruCache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &lruCache[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
		onEvict:  onEvict,
	}
}

// get returns the value for key and promotes it to most-recently-used.
func (c *lruCache[K, V]) get(key K) (V, bool) {
	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*lruEntry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// put inserts or overwrites the value for key. Overwriting reuses the slot and
// promotes it; inserting beyond capacity evicts the least-recently-used entry.
// The return value is the number of entries evicted to stay within capacity
// (an overwrite is not an eviction, though onEvict still sees the old value).
func (c *lruCache[K, V]) put(key K, value V) int {
	if el, ok := c.items[key]; ok {
		entry := el.Value.(*lruEntry[K, V])
		if c.onEvict != nil {
			c.onEvict(entry.key, entry.value)
		}
		entry.value = value
		c.order.MoveToFront(el)
		return 0
	}

	el := c.order.PushFront(&lruEntry[K, V]{key: key, value: value})
	c.items[key] = el

	evicted := 0
	for len(c.items) > c.capacity {
		last := c.order.Back()
		if last == nil {
			break
		}
		entry := last.Value.(*lruEntry[K, V])
		delete(c.items, entry.key)
		c.order.Remove(last)
		if c.onEvict != nil {
			c.onEvict(entry.key, entry.value)
		}
		evicted++
	}
	return evicted
}

// clear drops every entry and returns the number removed.
func (c *lruCache[K, V]) clear() int {
	count := len(c.items)
	if c.onEvict != nil {
		for el := c.order.Back(); el != nil; el = el.Prev() {
			entry := el.Value.(*lruEntry[K, V])
			c.onEvict(entry.key, entry.value)
		}
	}
	c.items = make(map[K]*list.Element, c.capacity)
	c.order.Init()
	return count
}

func (c *lruCache[K, V]) len() int {
	return len(c.items)
}
