package memory_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kontra/internal/cache/memory"
	"kontra/internal/domain"
)

func TestCache_RoundTrip(t *testing.T) {
	c := memory.New[string](10)
	c.Set("k1", "v1", time.Minute)

	got, ok := c.Get("k1")
	assert.True(t, ok)
	assert.Equal(t, "v1", got)
}

func TestCache_MissOnAbsentKey(t *testing.T) {
	c := memory.New[string](10)
	_, ok := c.Get("absent")
	assert.False(t, ok)
}

func TestCache_LazyExpiry(t *testing.T) {
	c := memory.New[string](10)
	c.Set("k1", "v1", 10*time.Millisecond)

	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("k1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().Size, "expired entry removed on access")
}

func TestCache_LRUEvictionBeforeTTL(t *testing.T) {
	c := memory.New[string](2)
	c.Set("a", "1", time.Hour)
	c.Set("b", "2", time.Hour)

	// Touch "a" so "b" becomes least recently used.
	_, ok := c.Get("a")
	assert.True(t, ok)

	c.Set("c", "3", time.Hour)

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestCache_SetExistingKeyDoesNotGrow(t *testing.T) {
	c := memory.New[string](2)
	c.Set("a", "1", time.Hour)
	c.Set("a", "2", time.Hour)

	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "2", got)
	assert.Equal(t, 1, c.Stats().Size)
}

func TestCache_StatsHitRate(t *testing.T) {
	c := memory.New[string](10)
	c.Set("k", "v", time.Minute)

	// 3 hits, 2 misses => 0.6
	c.Get("k")
	c.Get("k")
	c.Get("k")
	c.Get("m1")
	c.Get("m2")

	stats := c.Stats()
	assert.Equal(t, int64(3), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.InDelta(t, 0.6, stats.HitRate, 1e-9)
}

func TestCache_Clear(t *testing.T) {
	c := memory.New[string](10)
	c.Set("k", "v", time.Minute)
	c.Get("k")

	c.Clear()

	_, ok := c.Get("k")
	assert.False(t, ok)
	stats := c.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, int64(1), stats.Hits, "counters survive a clear")
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := memory.New[int](64)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := domain.Fingerprint(fmt.Sprintf("k%d", i%100))
				c.Set(key, i, time.Minute)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	stats := c.Stats()
	assert.LessOrEqual(t, stats.Size, 64)
	assert.Positive(t, stats.Hits)
}
