package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheFreshAndStale(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	c := NewTTLCache[string](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("AAPL", "v1")

	got, ok := c.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, "v1", got)

	// Exactly at TTL the entry is still fresh; one nanosecond past it is not.
	now = now.Add(time.Minute)
	_, ok = c.Get("AAPL")
	assert.True(t, ok)

	now = now.Add(time.Nanosecond)
	_, ok = c.Get("AAPL")
	assert.False(t, ok)
}

func TestTTLCachePeekSeesStale(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	c := NewTTLCache[int](time.Second)
	c.now = func() time.Time { return now }

	c.Set("k", 7)
	now = now.Add(time.Hour)

	_, ok := c.Get("k")
	require.False(t, ok)

	v, ok := c.Peek("k")
	require.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestTTLCacheSetResetsClock(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	c := NewTTLCache[string](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v1")
	now = now.Add(59 * time.Second)
	c.Set("k", "v2")
	now = now.Add(59 * time.Second)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v2", got)
}

func TestTTLCacheEvictStale(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	c := NewTTLCache[int](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("old", 1)
	now = now.Add(2 * time.Minute)
	c.Set("fresh", 2)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 1, c.EvictStale())
	assert.Equal(t, 1, c.Len())

	all := c.GetAll()
	require.Len(t, all, 1)
	assert.Equal(t, 2, all[0])
}
