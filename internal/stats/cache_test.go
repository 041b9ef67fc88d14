package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestCache(cfg CacheConfig) (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewCache(cfg)
	c.now = clock.now
	return c, clock
}

func TestCacheGetSet(t *testing.T) {
	c, _ := newTestCache(DefaultCacheConfig)
	from, to := at(1, 1, 0, 0), at(1, 7, 0, 0)

	_, ok := c.Get(1, from, to, "categories")
	assert.False(t, ok)

	c.Set(1, from, to, "categories", 42)
	v, ok := c.Get(1, from, to, "categories")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = c.Get(1, from, to, "total:week")
	assert.False(t, ok)
	_, ok = c.Get(2, from, to, "categories")
	assert.False(t, ok)

	assert.Equal(t, CacheStats{Entries: 1, Hits: 1, Misses: 3}, c.Stats())
}

func TestCacheExpires(t *testing.T) {
	c, clock := newTestCache(CacheConfig{TTL: time.Minute, MaxEntries: 10})
	from, to := at(1, 1, 0, 0), at(1, 7, 0, 0)

	c.Set(1, from, to, "categories", "x")
	clock.t = clock.t.Add(59 * time.Second)
	_, ok := c.Get(1, from, to, "categories")
	assert.True(t, ok)

	clock.t = clock.t.Add(2 * time.Second)
	_, ok = c.Get(1, from, to, "categories")
	assert.False(t, ok)
	assert.Zero(t, c.Stats().Entries)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, clock := newTestCache(CacheConfig{TTL: time.Hour, MaxEntries: 2})
	from := at(1, 1, 0, 0)

	c.Set(1, from, at(1, 2, 0, 0), "k", 1)
	clock.t = clock.t.Add(time.Second)
	c.Set(1, from, at(1, 3, 0, 0), "k", 2)
	clock.t = clock.t.Add(time.Second)
	_, _ = c.Get(1, from, at(1, 2, 0, 0), "k")
	clock.t = clock.t.Add(time.Second)
	c.Set(1, from, at(1, 4, 0, 0), "k", 3)

	_, ok := c.Get(1, from, at(1, 3, 0, 0), "k")
	assert.False(t, ok, "least recently used entry is evicted")
	_, ok = c.Get(1, from, at(1, 2, 0, 0), "k")
	assert.True(t, ok)
	_, ok = c.Get(1, from, at(1, 4, 0, 0), "k")
	assert.True(t, ok)
}

func TestCacheInvalidateUser(t *testing.T) {
	c, _ := newTestCache(DefaultCacheConfig)
	from, to := at(1, 1, 0, 0), at(1, 7, 0, 0)
	c.Set(1, from, to, "categories", 1)
	c.Set(1, from, to, "total:week", 2)
	c.Set(2, from, to, "categories", 3)

	c.InvalidateUser(1)

	_, ok := c.Get(1, from, to, "categories")
	assert.False(t, ok)
	_, ok = c.Get(1, from, to, "total:week")
	assert.False(t, ok)
	_, ok = c.Get(2, from, to, "categories")
	assert.True(t, ok)

	c.Clear()
	assert.Zero(t, c.Stats().Entries)
}
