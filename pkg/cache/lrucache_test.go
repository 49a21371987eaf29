package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/illmade-knight/go-catalog/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Eviction policy works correctly", func(t *testing.T) {
		// Arrange
		s, err := cache.NewLRUStore(2)
		require.NoError(t, err)

		// Act 1: Fill the store.
		require.NoError(t, s.SetWithExpiry(ctx, "movie:1", time.Hour, "1"))
		require.NoError(t, s.SetWithExpiry(ctx, "movie:2", time.Hour, "2"))

		// Act 2: Read movie:1 so movie:2 becomes the least recently used.
		v, err := s.Get(ctx, "movie:1")
		require.NoError(t, err)
		assert.Equal(t, "1", v)

		// Act 3: A third key evicts movie:2.
		require.NoError(t, s.SetWithExpiry(ctx, "movie:3", time.Hour, "3"))

		// Assert
		assert.Equal(t, 2, s.Len())
		_, err = s.Get(ctx, "movie:2")
		assert.ErrorIs(t, err, cache.ErrCacheMiss, "movie:2 should have been evicted")
		_, err = s.Get(ctx, "movie:1")
		assert.NoError(t, err)
		_, err = s.Get(ctx, "movie:3")
		assert.NoError(t, err)
	})

	t.Run("Overwrite refreshes value without growing", func(t *testing.T) {
		s, err := cache.NewLRUStore(2)
		require.NoError(t, err)
		require.NoError(t, s.SetWithExpiry(ctx, "genres:all", time.Hour, "old"))
		require.NoError(t, s.SetWithExpiry(ctx, "genres:all", time.Hour, "new"))

		v, err := s.Get(ctx, "genres:all")
		require.NoError(t, err)
		assert.Equal(t, "new", v)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("Entries expire", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
		s, err := cache.NewLRUStore(4, cache.WithClock(clock.Now))
		require.NoError(t, err)
		require.NoError(t, s.SetWithExpiry(ctx, "movies:all", time.Hour, "[]"))

		clock.Advance(time.Hour - time.Second)
		_, err = s.Get(ctx, "movies:all")
		require.NoError(t, err)

		clock.Advance(time.Second)
		_, err = s.Get(ctx, "movies:all")
		assert.ErrorIs(t, err, cache.ErrCacheMiss)
		assert.Equal(t, 0, s.Len(), "expired entries are dropped on read")
	})

	t.Run("Delete", func(t *testing.T) {
		s, err := cache.NewLRUStore(2)
		require.NoError(t, err)
		require.NoError(t, s.SetWithExpiry(ctx, "genre:1", time.Hour, "{}"))
		require.NoError(t, s.Delete(ctx, "genre:1"))
		require.NoError(t, s.Delete(ctx, "genre:absent"))

		_, err = s.Get(ctx, "genre:1")
		assert.ErrorIs(t, err, cache.ErrCacheMiss)
	})

	t.Run("Rejects non-positive size", func(t *testing.T) {
		_, err := cache.NewLRUStore(0)
		assert.Error(t, err)
	})
}
