package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, 0)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("k2", "v2")
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)

	j := NewJanitor(nil, c)
	assert.Equal(t, 1, j.Sweep())
	assert.Zero(t, c.Size())
}

func TestLRUPurgeAndDelete(t *testing.T) {
	c := NewLRUCache[int](0, 0)
	c.Set("a", 1)
	c.Delete("a")
	assert.Zero(t, c.Size())

	c.Set("b", 2)
	c.Purge()
	_, ok := c.Get("b")
	assert.False(t, ok)
}
