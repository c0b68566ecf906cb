package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache_SetGetDelete(t *testing.T) {
	c := NewTTLCache[[]string](time.Minute)

	_, ok := c.Get("all")
	assert.False(t, ok)

	c.Set("all", []string{"a", "b"})
	c.Set("branch:A", []string{"a"})
	got, ok := c.Get("all")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 2, c.Size())

	c.Delete("all")
	_, ok = c.Get("all")
	assert.False(t, ok)

	c.Flush()
	assert.Zero(t, c.Size())
}

func TestTTLCache_Expires(t *testing.T) {
	c := NewTTLCache[int](20 * time.Millisecond)
	c.Set("k", 1)
	assert.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestTTLCache_ZeroTTLNeverExpires(t *testing.T) {
	c := NewTTLCache[int](0)
	c.Set("k", 7)
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestTTLCache_SetIfGeneration(t *testing.T) {
	c := NewTTLCache[int](time.Minute)
	gen := c.Generation()
	assert.True(t, c.SetIfGeneration("k", 1, gen))

	c.Flush()
	assert.Equal(t, gen+1, c.Generation())
	assert.False(t, c.SetIfGeneration("k", 2, gen), "stale generation")
	_, ok := c.Get("k")
	assert.False(t, ok)

	assert.True(t, c.SetIfGeneration("k", 3, c.Generation()))
	v, _ := c.Get("k")
	assert.Equal(t, 3, v)
}

func TestNop(t *testing.T) {
	var c Cache[int] = Nop[int]{}
	c.Set("k", 1)
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.Size())
	assert.False(t, c.SetIfGeneration("k", 1, c.Generation()))
}
