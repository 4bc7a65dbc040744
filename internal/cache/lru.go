package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRU provides a thread-safe size-bounded cache for recomputable derived
// views (analytics summaries, chart history windows). Unlike Memo, entries
// may be evicted: everything stored here can be rebuilt from the memoized
// source data at any time.
type LRU[K comparable, V any] struct {
	cache   *lru.Cache[K, V]
	mu      sync.RWMutex
	hits    uint64
	misses  uint64
	evicted uint64
}

// NewLRU creates a new LRU cache holding at most size entries.
func NewLRU[K comparable, V any](size int) (*LRU[K, V], error) {
	cache, err := lru.New[K, V](size)
	if err != nil {
		return nil, err
	}

	return &LRU[K, V]{cache: cache}, nil
}

// Get retrieves a value from the cache.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.cache.Get(key)
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}

	c.hits++
	return value, true
}

// Set stores a value, evicting the least recently used entry when full.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if evicted := c.cache.Add(key, value); evicted {
		c.evicted++
	}
}

// Delete removes a key from the cache.
func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Remove(key)
}

// Len returns the number of entries in the cache.
func (c *LRU[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.cache.Len()
}

// Clear removes all entries from the cache.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Purge()
}

// Stats holds cache counters for observability.
type Stats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Evicted uint64  `json:"evicted,omitempty"`
	Size    int     `json:"size"`
	HitRate float64 `json:"hit_rate"`
}

// Stats returns current cache statistics.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Hits:    c.hits,
		Misses:  c.misses,
		Evicted: c.evicted,
		Size:    c.cache.Len(),
		HitRate: hitRate,
	}
}
