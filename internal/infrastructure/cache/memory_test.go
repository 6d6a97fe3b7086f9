package cache

import (
	"context"
	"testing"
	"time"

	"github.com/NHL-StillFresh/still-fresh-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set then get", func(t *testing.T) {
		c := NewMemoryCache()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "key", "value", time.Minute))
		value, err := c.Get(ctx, "key")
		require.NoError(t, err)
		assert.Equal(t, "value", value)
	})

	t.Run("miss on unknown key", func(t *testing.T) {
		c := NewMemoryCache()
		defer c.Close()

		_, err := c.Get(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	t.Run("expired entry is a miss", func(t *testing.T) {
		c := NewMemoryCache()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "key", "value", 10*time.Millisecond))
		time.Sleep(30 * time.Millisecond)

		_, err := c.Get(ctx, "key")
		assert.ErrorIs(t, err, domain.ErrCacheMiss)

		exists, err := c.Exists(ctx, "key")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("structs come back as decoded JSON", func(t *testing.T) {
		c := NewMemoryCache()
		defer c.Close()

		type candidate struct {
			ExternalID string  `json:"externalId"`
			Title      string  `json:"title"`
			Price      float64 `json:"price"`
		}
		stored := []candidate{{ExternalID: "wi1", Title: "Melk", Price: 1.09}}

		require.NoError(t, c.Set(ctx, "catalog:melk", stored, time.Minute))
		value, err := c.Get(ctx, "catalog:melk")
		require.NoError(t, err)

		// Same shape a Redis-backed cache would return
		items, ok := value.([]interface{})
		require.True(t, ok)
		require.Len(t, items, 1)
		m, ok := items[0].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "wi1", m["externalId"])
		assert.Equal(t, "Melk", m["title"])
		assert.Equal(t, 1.09, m["price"])
	})

	t.Run("delete removes the entry", func(t *testing.T) {
		c := NewMemoryCache()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "key", "value", time.Minute))
		require.NoError(t, c.Delete(ctx, "key"))

		_, err := c.Get(ctx, "key")
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
		assert.Equal(t, 0, c.Size())
	})

	t.Run("exists reports live entries", func(t *testing.T) {
		c := NewMemoryCache()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "key", 42, time.Minute))
		exists, err := c.Exists(ctx, "key")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = c.Exists(ctx, "other")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("overwrite replaces the value and ttl", func(t *testing.T) {
		c := NewMemoryCache()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "key", "old", 10*time.Millisecond))
		require.NoError(t, c.Set(ctx, "key", "new", time.Minute))
		time.Sleep(30 * time.Millisecond)

		value, err := c.Get(ctx, "key")
		require.NoError(t, err)
		assert.Equal(t, "new", value)
		assert.Equal(t, 1, c.Size())
	})
}
