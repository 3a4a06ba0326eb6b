package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute})
	defer c.Close()

	t.Run("set and get returns value", func(t *testing.T) {
		c.Set("key", "value")
		got, ok := c.Get("key")
		require.True(t, ok)
		assert.Equal(t, "value", got)
	})

	t.Run("missing key returns false", func(t *testing.T) {
		_, ok := c.Get("missing")
		assert.False(t, ok)
	})

	t.Run("delete removes key", func(t *testing.T) {
		c.Set("gone", 1)
		c.Delete("gone")
		_, ok := c.Get("gone")
		assert.False(t, ok)
	})
}

func TestCache_Expiry(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute})
	defer c.Close()

	c.SetWithTTL("short", "v", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	_, ok := c.Get("short")
	assert.False(t, ok, "expired entry should not be returned")
}
