package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemo_LoadsOnce(t *testing.T) {
	memo := NewMemo[string, int]()

	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := memo.Do("a", load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = memo.Do("a", load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	assert.Equal(t, 1, calls, "second lookup must be served from cache")
	assert.Equal(t, 1, memo.Len())
}

func TestMemo_DoesNotCacheFailures(t *testing.T) {
	memo := NewMemo[string, int]()

	calls := 0
	failing := errors.New("file missing")

	_, err := memo.Do("a", func() (int, error) {
		calls++
		return 0, failing
	})
	require.ErrorIs(t, err, failing)
	assert.Equal(t, 0, memo.Len(), "failed load must not be cached")

	// A later load succeeds without restart
	v, err := memo.Do("a", func() (int, error) {
		calls++
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, calls)
}

func TestMemo_ConcurrentCallersShareOneLoad(t *testing.T) {
	memo := NewMemo[string, int]()

	var calls atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := memo.Do("a", func() (int, error) {
				calls.Add(1)
				return 99, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 99, v)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load(), "concurrent callers must share one load")
}

func TestMemo_KeysAreIndependent(t *testing.T) {
	memo := NewMemo[string, string]()

	a, err := memo.Do("a", func() (string, error) { return "alpha", nil })
	require.NoError(t, err)
	b, err := memo.Do("b", func() (string, error) { return "beta", nil })
	require.NoError(t, err)

	assert.Equal(t, "alpha", a)
	assert.Equal(t, "beta", b)
	assert.Equal(t, 2, memo.Len())
}

func TestMemo_StatsCountHitsAndMisses(t *testing.T) {
	memo := NewMemo[string, int]()

	_, err := memo.Do("a", func() (int, error) { return 1, nil })
	require.NoError(t, err)
	_, err = memo.Do("a", func() (int, error) { return 1, nil })
	require.NoError(t, err)
	_, err = memo.Do("a", func() (int, error) { return 1, nil })
	require.NoError(t, err)

	stats := memo.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewLRU[string, int](2)
	require.NoError(t, err)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3) // evicts "a"

	_, ok := c.Get("a")
	assert.False(t, ok)

	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Evicted)
	assert.Equal(t, 2, stats.Size)
}

func TestLRU_ClearEmptiesCache(t *testing.T) {
	c, err := NewLRU[string, int](4)
	require.NoError(t, err)

	c.Set("a", 1)
	c.Set("b", 2)
	require.Equal(t, 2, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}
