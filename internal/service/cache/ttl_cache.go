package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	v  T
	at time.Time
}

// TTLCache maps keys to values plus their insertion timestamp and enforces a
// fixed time-to-live per instance. A value whose TTL has elapsed is reported
// absent even while still physically present; EvictStale removes such entries
// to bound memory growth. All mutations are atomic with respect to concurrent
// readers.
type TTLCache[T any] struct {
	mu  sync.RWMutex
	m   map[string]entry[T]
	ttl time.Duration

	now func() time.Time // overridable in tests
}

// NewTTLCache creates a cache with a fixed TTL.
func NewTTLCache[T any](ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{
		m:   make(map[string]entry[T]),
		ttl: ttl,
		now: time.Now,
	}
}

// Set stores value under key with timestamp now.
func (c *TTLCache[T]) Set(key string, v T) {
	c.mu.Lock()
	c.m[key] = entry[T]{v: v, at: c.now()}
	c.mu.Unlock()
}

// Get returns the value only if its TTL has not elapsed.
func (c *TTLCache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	now := c.now()
	c.mu.RUnlock()

	var zero T
	if !ok || now.Sub(e.at) > c.ttl {
		return zero, false
	}
	return e.v, true
}

// Peek returns the value even when stale. Refresh paths use it to compare
// against the previous value without treating it as fresh.
func (c *TTLCache[T]) Peek(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		var zero T
		return zero, false
	}
	return e.v, true
}

// GetAll returns all currently non-stale values, in unspecified order.
func (c *TTLCache[T]) GetAll() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	out := make([]T, 0, len(c.m))
	for _, e := range c.m {
		if now.Sub(e.at) <= c.ttl {
			out = append(out, e.v)
		}
	}
	return out
}

// EvictStale removes entries whose TTL has elapsed and reports how many.
func (c *TTLCache[T]) EvictStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for k, e := range c.m {
		if now.Sub(e.at) > c.ttl {
			delete(c.m, k)
			n++
		}
	}
	return n
}

// Len reports the number of physically present entries, stale included.
func (c *TTLCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// TTL returns the fixed time-to-live of this instance.
func (c *TTLCache[T]) TTL() time.Duration { return c.ttl }
