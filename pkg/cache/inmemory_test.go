package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/illmade-knight/go-catalog/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestInMemoryStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := cache.NewInMemoryStore()

	t.Run("Miss on empty store", func(t *testing.T) {
		_, err := s.Get(ctx, "movies:all")
		assert.ErrorIs(t, err, cache.ErrCacheMiss)
	})

	t.Run("Set then Get", func(t *testing.T) {
		require.NoError(t, s.SetWithExpiry(ctx, "movie:1", time.Hour, `{"id":"1"}`))

		value, err := s.Get(ctx, "movie:1")
		require.NoError(t, err)
		assert.Equal(t, `{"id":"1"}`, value)
	})

	t.Run("Delete removes the key", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "movie:1"))

		_, err := s.Get(ctx, "movie:1")
		assert.ErrorIs(t, err, cache.ErrCacheMiss)
	})

	t.Run("Delete of an absent key is not an error", func(t *testing.T) {
		assert.NoError(t, s.Delete(ctx, "never-written"))
	})
}

func TestInMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := cache.NewInMemoryStore(cache.WithClock(clock.Now))

	require.NoError(t, s.SetWithExpiry(ctx, "genres:all", 3600*time.Second, "[]"))

	clock.Advance(3599 * time.Second)
	value, err := s.Get(ctx, "genres:all")
	require.NoError(t, err, "entry should still be live one second before expiry")
	assert.Equal(t, "[]", value)

	clock.Advance(time.Second)
	_, err = s.Get(ctx, "genres:all")
	assert.ErrorIs(t, err, cache.ErrCacheMiss, "entry must be absent once the ttl has elapsed")
}

func TestInMemoryStore_ExpiryIsAbsolute(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := cache.NewInMemoryStore(cache.WithClock(clock.Now))

	require.NoError(t, s.SetWithExpiry(ctx, "k", time.Minute, "v"))

	// Reads must not extend the lifetime of an entry.
	for i := 0; i < 5; i++ {
		clock.Advance(10 * time.Second)
		_, err := s.Get(ctx, "k")
		require.NoError(t, err)
	}
	clock.Advance(10 * time.Second)
	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}
