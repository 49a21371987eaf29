package cache_test

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/illmade-knight/go-catalog/pkg/cache"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// Keys that cannot name a document are rejected before any RPC, so no
// emulator is needed here.
func TestFirestoreStore_UnaddressableKeys(t *testing.T) {
	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "test-project", option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	s, err := cache.NewFirestoreStore(&cache.FirestoreConfig{CollectionName: "catalog-cache"}, client, zerolog.Nop())
	require.NoError(t, err)

	for _, key := range []string{"", "genre:a/b", "movies/all"} {
		_, err := s.Get(ctx, key)
		assert.ErrorIs(t, err, cache.ErrCacheMiss, "key %q", key)

		assert.NoError(t, s.Delete(ctx, key), "key %q", key)

		err = s.SetWithExpiry(ctx, key, time.Hour, "{}")
		assert.ErrorIs(t, err, cache.ErrInvalidKey, "key %q", key)
	}
}
