package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetSet(t *testing.T) {
	c, err := New[int](4)
	require.NoError(t, err)

	assert.True(t, c.Set("a", 1))
	assert.False(t, c.Set("a", 2), "second set updates in place")

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = c.Get("absent")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(2), stats.Sets)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c, err := New[int](2, WithEvictCallback[int](func(key string, _ int) {
		evicted = append(evicted, key)
	}))
	require.NoError(t, err)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // b is now least recently used
	c.Set("c", 3)

	assert.Equal(t, []string{"b"}, evicted)
	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)

	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestCache_DeleteAndClear(t *testing.T) {
	c, err := New[string](8)
	require.NoError(t, err)

	c.Set("k", "v")
	assert.True(t, c.Delete("k"))
	assert.False(t, c.Delete("k"))

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), "v")
	}
	assert.Equal(t, 5, c.Len())
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestCache_InvalidCapacity(t *testing.T) {
	_, err := New[int](0)
	require.Error(t, err)
}
