package cache

import "time"

// LayeredBytesCache reads through a fast local layer before a shared layer
// and back-fills the local layer on shared hits. Writes go to both. Errors
// from the shared layer degrade to local-only behavior.
type LayeredBytesCache struct {
	local  BytesCache
	shared BytesCache

	// refillTTL bounds how long a shared hit may live locally, since the
	// shared entry's remaining TTL is not observable through BytesCache.
	refillTTL time.Duration
}

func NewLayeredBytesCache(local, shared BytesCache, refillTTL time.Duration) *LayeredBytesCache {
	return &LayeredBytesCache{local: local, shared: shared, refillTTL: refillTTL}
}

func (c *LayeredBytesCache) GetBytes(key string) ([]byte, bool, error) {
	if b, ok, err := c.local.GetBytes(key); err == nil && ok {
		return b, true, nil
	}
	if c.shared == nil {
		return nil, false, nil
	}
	b, ok, err := c.shared.GetBytes(key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = c.local.SetBytes(key, b, c.refillTTL)
	return b, true, nil
}

func (c *LayeredBytesCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	if err := c.local.SetBytes(key, value, ttl); err != nil {
		return err
	}
	if c.shared != nil {
		return c.shared.SetBytes(key, value, ttl)
	}
	return nil
}
