package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnifiedCacheSetGet(t *testing.T) {
	c := NewUnifiedCache[string](time.Minute, "test", nil)

	c.Set("k", "v")

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	_, ok = c.Get("absent")
	assert.False(t, ok)

	m := c.GetMetrics()
	assert.Equal(t, int64(1), m.Hits)
	assert.Equal(t, int64(1), m.Misses)
	assert.Equal(t, int64(1), m.Sets)
}

func TestUnifiedCacheExpiry(t *testing.T) {
	c := NewUnifiedCache[int](10*time.Millisecond, "test", nil)

	c.Set("k", 7)
	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestUnifiedCacheConcurrentAccess(t *testing.T) {
	c := NewUnifiedCache[int](time.Minute, "test", nil)
	c.Set("k", 1)

	const workers = 16
	const rounds = 100

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				c.Get("k")
				c.Get("absent")
			}
		}()
	}
	wg.Wait()

	m := c.GetMetrics()
	assert.Equal(t, int64(workers*rounds), m.Hits)
	assert.Equal(t, int64(workers*rounds), m.Misses)
}
