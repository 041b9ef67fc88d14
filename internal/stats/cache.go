package stats

import (
	"sort"
	"sync"
	"time"
)

// CacheConfig holds configuration for the stats cache
type CacheConfig struct {
	TTL        time.Duration // How long entries stay valid
	MaxEntries int           // Entries kept before the least recently used are dropped
}

// DefaultCacheConfig is used when the config file leaves the cache settings empty.
var DefaultCacheConfig = CacheConfig{
	TTL:        10 * time.Minute,
	MaxEntries: 256,
}

type cacheKey struct {
	userID uint
	from   int64
	to     int64
	kind   string
}

type cacheEntry struct {
	result     any
	expiresAt  time.Time
	accessedAt time.Time
}

// Cache memoizes aggregation results per (user, range, kind).
// Every mutation of a user's worktimes, series or pauses must call InvalidateUser.
type Cache struct {
	mu         sync.RWMutex
	entries    map[cacheKey]*cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	hits, misses int
}

// NewCache creates an empty cache
func NewCache(cfg CacheConfig) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheConfig.TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultCacheConfig.MaxEntries
	}
	return &Cache{
		entries:    make(map[cacheKey]*cacheEntry),
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		now:        time.Now,
	}
}

func keyOf(userID uint, from, to time.Time, kind string) cacheKey {
	return cacheKey{userID: userID, from: from.UnixNano(), to: to.UnixNano(), kind: kind}
}

// Get returns a cached result if present and not expired
func (c *Cache) Get(userID uint, from, to time.Time, kind string) (any, bool) {
	key := keyOf(userID, from, to, kind)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || now.After(entry.expiresAt) {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	entry.accessedAt = now
	c.hits++
	return entry.result, true
}

// Set stores a result
func (c *Cache) Set(userID uint, from, to time.Time, kind string, result any) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[keyOf(userID, from, to, kind)] = &cacheEntry{
		result:     result,
		expiresAt:  now.Add(c.ttl),
		accessedAt: now,
	}
	if len(c.entries) > c.maxEntries {
		c.cleanup(now)
	}
}

// InvalidateUser drops every entry of the user
func (c *Cache) InvalidateUser(userID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if key.userID == userID {
			delete(c.entries, key)
		}
	}
}

// Clear drops everything
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]*cacheEntry)
}

// CacheStats reports the cache's size and hit counters
type CacheStats struct {
	Entries int
	Hits    int
	Misses  int
}

// Stats returns a snapshot of the cache counters
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

// cleanup removes expired entries, then the least recently accessed ones
// until the cache is back under its limit. Caller holds the lock.
func (c *Cache) cleanup(now time.Time) {
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) <= c.maxEntries {
		return
	}

	keys := make([]cacheKey, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.entries[keys[i]].accessedAt.Before(c.entries[keys[j]].accessedAt)
	})
	for _, key := range keys[:len(c.entries)-c.maxEntries] {
		delete(c.entries, key)
	}
}
