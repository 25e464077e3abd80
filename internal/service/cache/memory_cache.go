package cache

import (
	"sync"
	"time"
)

type bytesEntry struct {
	b   []byte
	exp time.Time
}

// MemoryBytesCache is the in-process BytesCache.
type MemoryBytesCache struct {
	mu sync.RWMutex
	m  map[string]bytesEntry
}

func NewMemoryBytesCache() *MemoryBytesCache {
	return &MemoryBytesCache{m: make(map[string]bytesEntry)}
}

func (c *MemoryBytesCache) GetBytes(key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.b, true, nil
}

func (c *MemoryBytesCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.m[key] = bytesEntry{b: value, exp: exp}
	c.mu.Unlock()
	return nil
}
