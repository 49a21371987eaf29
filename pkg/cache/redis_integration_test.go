//go:build integration

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/illmade-knight/go-catalog/pkg/cache"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping Redis integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	s, err := cache.NewRedisStore(ctx, &cache.RedisConfig{Addr: addr}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	t.Run("Set and Get", func(t *testing.T) {
		key := "itest:movie:1"
		require.NoError(t, s.SetWithExpiry(ctx, key, time.Minute, `{"id":"1"}`))

		value, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `{"id":"1"}`, value)
	})

	t.Run("Get Miss", func(t *testing.T) {
		_, err := s.Get(ctx, "itest:non-existent-key")
		assert.ErrorIs(t, err, cache.ErrCacheMiss)
	})

	t.Run("Delete", func(t *testing.T) {
		key := "itest:delete-me"
		require.NoError(t, s.SetWithExpiry(ctx, key, time.Minute, "x"))
		require.NoError(t, s.Delete(ctx, key))

		_, err := s.Get(ctx, key)
		assert.ErrorIs(t, err, cache.ErrCacheMiss)
	})

	t.Run("TTL Expires", func(t *testing.T) {
		key := "itest:ttl-key"
		require.NoError(t, s.SetWithExpiry(ctx, key, time.Second, "short-lived"))

		// Verifying a server-side expiry needs real time to pass.
		time.Sleep(1500 * time.Millisecond)

		_, err := s.Get(ctx, key)
		assert.ErrorIs(t, err, cache.ErrCacheMiss, "Should miss after TTL expires")
	})
}
