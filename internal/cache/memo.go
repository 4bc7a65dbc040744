// Package cache provides the in-process caches used by the loaders and
// derived-view services.
package cache

import "sync"

// Memo is a thread-safe once-per-key load cache.
//
// It backs the dataset and model loaders: the first successful load for a key
// is kept for the lifetime of the process, later lookups return the cached
// value without touching disk. Failed loads are not stored, so a request after
// the underlying file has been fixed retries the load. There is no eviction;
// replacing an artifact on disk requires a restart.
//
// Concurrent callers for the same key share a single load execution.
type Memo[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*memoEntry[V]
	hits    uint64
	misses  uint64
}

type memoEntry[V any] struct {
	once  sync.Once
	done  chan struct{}
	value V
	err   error
}

// NewMemo creates an empty memoization cache.
func NewMemo[K comparable, V any]() *Memo[K, V] {
	return &Memo[K, V]{
		entries: make(map[K]*memoEntry[V]),
	}
}

// Do returns the cached value for key, loading it with load on first use.
// When load fails the entry is discarded so a later call retries.
func (m *Memo[K, V]) Do(key K, load func() (V, error)) (V, error) {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if !ok {
		entry = &memoEntry[V]{done: make(chan struct{})}
		m.entries[key] = entry
		m.misses++
	} else {
		m.hits++
	}
	m.mu.Unlock()

	entry.once.Do(func() {
		entry.value, entry.err = load()
		close(entry.done)
	})

	if entry.err != nil {
		// Drop the failed entry (only if it is still the one we created,
		// a concurrent retry may already have replaced it).
		m.mu.Lock()
		if m.entries[key] == entry {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		var zero V
		return zero, entry.err
	}

	return entry.value, nil
}

// Peek reports whether key has a completed successful load, without loading.
// A load still in flight counts as absent.
func (m *Memo[K, V]) Peek(key K) (V, bool) {
	m.mu.Lock()
	entry, ok := m.entries[key]
	m.mu.Unlock()

	var zero V
	if !ok {
		return zero, false
	}

	select {
	case <-entry.done:
	default:
		return zero, false
	}

	if entry.err != nil {
		return zero, false
	}
	return entry.value, true
}

// Len returns the number of cached entries.
func (m *Memo[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Stats returns hit/miss counters for the status endpoint.
func (m *Memo[K, V]) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := m.hits + m.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(m.hits) / float64(total)
	}

	return Stats{
		Hits:    m.hits,
		Misses:  m.misses,
		Size:    len(m.entries),
		HitRate: hitRate,
	}
}
