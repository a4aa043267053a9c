package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheBasicOps(t *testing.T) {
	c := New[string, int](16)

	c.Set("a", 1)
	c.Set("b", 2)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, c.GetAll())

	assert.Equal(t, 1, c.Del("a"))
	assert.Equal(t, 0, c.Del("a"))

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestCacheDefaultShardCount(t *testing.T) {
	c := New[int, string](0)
	c.Set(1, "x")
	v, ok := c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "x", v)
}

func TestCacheConcurrentReadInsert(t *testing.T) {
	c := New[int, int](16)
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Set(n, n)
			c.Get(n % 8)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 64, c.Len())
}
