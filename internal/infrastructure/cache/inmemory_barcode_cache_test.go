package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryBarcodeCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set then get", func(t *testing.T) {
		c := NewInMemoryBarcodeCache()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "acme.myshopify.com", 3001, "111111", time.Hour))

		barcode, found, err := c.Get(ctx, "acme.myshopify.com", 3001)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "111111", barcode)
	})

	t.Run("miss on unknown key", func(t *testing.T) {
		c := NewInMemoryBarcodeCache()
		defer c.Close()

		_, found, err := c.Get(ctx, "acme.myshopify.com", 9999)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("keys are scoped per shop domain", func(t *testing.T) {
		c := NewInMemoryBarcodeCache()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "acme.myshopify.com", 3001, "111111", time.Hour))

		_, found, err := c.Get(ctx, "other.myshopify.com", 3001)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("expired entries read as misses", func(t *testing.T) {
		c := NewInMemoryBarcodeCache()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "acme.myshopify.com", 3001, "111111", time.Millisecond))
		time.Sleep(5 * time.Millisecond)

		_, found, err := c.Get(ctx, "acme.myshopify.com", 3001)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("set overwrites", func(t *testing.T) {
		c := NewInMemoryBarcodeCache()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "acme.myshopify.com", 3001, "old", time.Hour))
		require.NoError(t, c.Set(ctx, "acme.myshopify.com", 3001, "new", time.Hour))

		barcode, found, _ := c.Get(ctx, "acme.myshopify.com", 3001)
		assert.True(t, found)
		assert.Equal(t, "new", barcode)
		assert.Equal(t, 1, c.Size())
	})

	t.Run("cleanup removes expired entries", func(t *testing.T) {
		c := NewInMemoryBarcodeCache()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "acme.myshopify.com", 1, "a", time.Millisecond))
		require.NoError(t, c.Set(ctx, "acme.myshopify.com", 2, "b", time.Hour))
		time.Sleep(5 * time.Millisecond)

		c.cleanup()
		assert.Equal(t, 1, c.Size())
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		c := NewInMemoryBarcodeCache()
		defer c.Close()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func(n int64) {
				defer wg.Done()
				_ = c.Set(ctx, "acme.myshopify.com", n, "barcode", time.Hour)
			}(int64(i))
			go func(n int64) {
				defer wg.Done()
				_, _, _ = c.Get(ctx, "acme.myshopify.com", n)
			}(int64(i))
		}
		wg.Wait()
		assert.Equal(t, 10, c.Size())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		c := NewInMemoryBarcodeCache()
		require.NoError(t, c.Close())
		require.NoError(t, c.Close())
	})
}
