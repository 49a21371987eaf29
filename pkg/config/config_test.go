package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/illmade-knight/go-catalog/pkg/catalog"
	"github.com/illmade-knight/go-catalog/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPPort)
	assert.Equal(t, config.BackendMemory, cfg.EntityStore.Backend)
	assert.Equal(t, config.BackendMemory, cfg.Cache.Backend)
	assert.Equal(t, catalog.DefaultTTL, cfg.Cache.TTL)
	assert.False(t, cfg.Service.InvalidateGenreViewsOnMovieWrite)
	assert.False(t, cfg.NeedsGoogleCloud())
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	// Arrange
	path := writeFile(t, `
log_level: debug
project_id: catalog-dev
entity_store:
  backend: firestore
  firestore:
    movies_collection: films
cache:
  backend: redis
  ttl: 30m
  max_entries: 500
  redis:
    addr: redis:6379
service:
  invalidate_genre_views_on_movie_write: true
rate_limit:
  enabled: true
  rps: 5
  burst: 10
`)
	t.Setenv("CATALOG_REDIS_ADDR", "cache.internal:6380")
	t.Setenv("CATALOG_HTTP_PORT", ":9090")

	// Act
	cfg, err := config.Load(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.HTTPPort)
	assert.Equal(t, "films", cfg.EntityStore.Firestore.MoviesCollection)
	assert.Equal(t, "genres", cfg.EntityStore.Firestore.GenresCollection, "unset keys keep their defaults")
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 500, cfg.Cache.MaxEntries)
	assert.Equal(t, "cache.internal:6380", cfg.Cache.Redis.Addr)
	assert.True(t, cfg.Service.InvalidateGenreViewsOnMovieWrite)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.True(t, cfg.NeedsFirestore())
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "unknown cache backend", yaml: "cache:\n  backend: memcached\n"},
		{name: "firestore without project", yaml: "entity_store:\n  backend: firestore\n"},
		{name: "images without bucket", yaml: "project_id: p\nimages:\n  enabled: true\n"},
		{name: "bad ttl env", env: map[string]string{"CATALOG_CACHE_TTL": "an hour"}},
		{name: "bad bool env", env: map[string]string{"CATALOG_EVENTS_ENABLED": "sometimes"}},
		{name: "malformed yaml", yaml: "cache: [\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			path := ""
			if tc.yaml != "" {
				path = writeFile(t, tc.yaml)
			}
			_, err := config.Load(path)
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
