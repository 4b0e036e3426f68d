package tenant_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pgtenants/pkg/tenant"
)

func TestMemoryCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()

		c := tenant.NewMemoryCache()
		defer c.Close()

		c.Set(ctx, "acme.example.com", newTestTenant("acme", false), time.Minute)

		got, ok := c.Get(ctx, "acme.example.com")
		require.True(t, ok)
		assert.Equal(t, "acme", got.Name)
	})

	t.Run("miss on unknown key", func(t *testing.T) {
		t.Parallel()

		c := tenant.NewMemoryCache()
		defer c.Close()

		_, ok := c.Get(ctx, "nope.example.com")
		assert.False(t, ok)
	})

	t.Run("expired entries are misses", func(t *testing.T) {
		t.Parallel()

		c := tenant.NewMemoryCache()
		defer c.Close()

		c.Set(ctx, "acme.example.com", newTestTenant("acme", false), 10*time.Millisecond)
		time.Sleep(30 * time.Millisecond)

		_, ok := c.Get(ctx, "acme.example.com")
		assert.False(t, ok)
	})

	t.Run("delete evicts", func(t *testing.T) {
		t.Parallel()

		c := tenant.NewMemoryCache()
		defer c.Close()

		c.Set(ctx, "acme.example.com", newTestTenant("acme", false), time.Minute)
		c.Delete(ctx, "acme.example.com")

		_, ok := c.Get(ctx, "acme.example.com")
		assert.False(t, ok)
	})

	t.Run("size bound holds", func(t *testing.T) {
		t.Parallel()

		c := tenant.NewMemoryCacheWithSize(2)
		defer c.Close()

		c.Set(ctx, "a.example.com", newTestTenant("a1", false), time.Minute)
		c.Set(ctx, "b.example.com", newTestTenant("b1", false), time.Minute)
		c.Set(ctx, "c.example.com", newTestTenant("c1", false), time.Minute)

		present := 0
		for _, key := range []string{"a.example.com", "b.example.com", "c.example.com"} {
			if _, ok := c.Get(ctx, key); ok {
				present++
			}
		}
		assert.Equal(t, 2, present)
	})

	t.Run("expired entries evicted before live ones", func(t *testing.T) {
		t.Parallel()

		c := tenant.NewMemoryCacheWithSize(2)
		defer c.Close()

		c.Set(ctx, "stale.example.com", newTestTenant("stale", false), time.Nanosecond)
		c.Set(ctx, "live.example.com", newTestTenant("live", false), time.Minute)
		time.Sleep(time.Millisecond)
		c.Set(ctx, "fresh.example.com", newTestTenant("fresh", false), time.Minute)

		_, ok := c.Get(ctx, "live.example.com")
		assert.True(t, ok)
		_, ok = c.Get(ctx, "fresh.example.com")
		assert.True(t, ok)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()

		c := tenant.NewMemoryCache()
		require.NoError(t, c.Close())
		require.NoError(t, c.Close())
	})
}

func TestNoOpCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := tenant.NewNoOpCache()

	c.Set(ctx, "acme.example.com", newTestTenant("acme", false), time.Minute)
	_, ok := c.Get(ctx, "acme.example.com")
	assert.False(t, ok)
	assert.NoError(t, c.Close())
}
