// Package cache provides a small in-process TTL cache used to trim repeat
// calls to external APIs on hot chat paths. Expiry is lazy: entries are
// dropped when a Get observes they have passed their deadline, there is no
// background sweeper.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	val V
	exp time.Time
}

// Cache is a string-keyed TTL cache safe for concurrent use. Callers build
// collision-free composite keys (namespace + subject + variant).
type Cache[V any] struct {
	mu   sync.Mutex
	data map[string]entry[V]
	now  func() time.Time
}

// New returns an empty cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{data: make(map[string]entry[V]), now: time.Now}
}

// Set stores v under key with an absolute expiry of now+ttl, overwriting any
// existing entry.
func (c *Cache[V]) Set(key string, v V, ttl time.Duration) {
	c.mu.Lock()
	c.data[key] = entry[V]{val: v, exp: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Get returns the stored value and true if the entry exists and has not
// expired. An expired entry is deleted and reported as absent.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.exp) {
		delete(c.data, key)
		var zero V
		return zero, false
	}
	return e.val, true
}

// Len reports the number of stored entries, expired or not. Used by status
// reporting; the count may include entries that would expire on next read.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
