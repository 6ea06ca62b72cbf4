// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package cache

import (
	"sync"
	"time"
)

// lruEntry is a node of the recency list.
type lruEntry[V any] struct {
	key       string
	value     V
	prev      *lruEntry[V]
	next      *lruEntry[V]
	expiresAt time.Time
}

// LRU is a thread-safe least recently used cache with TTL support.
//
// Key features:
//   - O(1) Get, Add and Remove
//   - O(1) eviction of the least recently used entry at capacity
//   - Lazy expiration on Get plus CleanupExpired for periodic sweeps
//
// It uses a doubly-linked list for ordering and a map for lookups.
type LRU[V any] struct {
	mu sync.RWMutex

	capacity int
	ttl      time.Duration

	items map[string]*lruEntry[V]

	// head.next is the most recently used, tail.prev the least.
	head *lruEntry[V]
	tail *lruEntry[V]

	hits   int64
	misses int64
}

// NewLRU creates an LRU with the given capacity and TTL.
func NewLRU[V any](capacity int, ttl time.Duration) *LRU[V] {
	if capacity <= 0 {
		capacity = 512
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	c := &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*lruEntry[V], capacity),
		head:     &lruEntry[V]{},
		tail:     &lruEntry[V]{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get returns the value for key if present and not expired, and marks it
// as most recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	if entry, exists := c.items[key]; exists {
		if time.Now().After(entry.expiresAt) {
			c.removeEntry(entry)
			c.misses++
			return zero, false
		}
		c.moveToFront(entry)
		c.hits++
		return entry.value, true
	}

	c.misses++
	return zero, false
}

// Contains checks if a key exists without updating access order.
func (c *LRU[V]) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if entry, exists := c.items[key]; exists {
		return !time.Now().After(entry.expiresAt)
	}
	return false
}

// Add inserts or replaces an entry, evicting the least recently used entry
// when the cache is full.
func (c *LRU[V]) Add(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(c.ttl)

	if entry, exists := c.items[key]; exists {
		entry.value = value
		entry.expiresAt = expiresAt
		c.moveToFront(entry)
		return
	}

	entry := &lruEntry[V]{key: key, value: value, expiresAt: expiresAt}
	c.addToFront(entry)
	c.items[key] = entry

	for len(c.items) > c.capacity {
		c.evictOldest()
	}
}

// Remove deletes key. It reports whether the key was present.
func (c *LRU[V]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.items[key]; exists {
		c.removeEntry(entry)
		return true
	}
	return false
}

// Len returns the current number of entries.
func (c *LRU[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all entries.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*lruEntry[V], c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// CleanupExpired removes all expired entries and returns how many it removed.
func (c *LRU[V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0

	// Walk from tail (oldest) to head (newest)
	for entry := c.tail.prev; entry != c.head; {
		prev := entry.prev
		if now.After(entry.expiresAt) {
			c.removeEntry(entry)
			removed++
		}
		entry = prev
	}
	return removed
}

// Stats returns hit/miss statistics.
func (c *LRU[V]) Stats() (hits, misses int64, size int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, len(c.items)
}

// Internal methods (must be called with lock held)

func (c *LRU[V]) addToFront(entry *lruEntry[V]) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *LRU[V]) moveToFront(entry *lruEntry[V]) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.addToFront(entry)
}

func (c *LRU[V]) removeEntry(entry *lruEntry[V]) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(c.items, entry.key)
}

func (c *LRU[V]) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.removeEntry(oldest)
}
