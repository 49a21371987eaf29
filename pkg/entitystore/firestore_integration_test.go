//go:build integration

package entitystore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/illmade-knight/go-catalog/pkg/catalog"
	"github.com/illmade-knight/go-catalog/pkg/entitystore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirestoreStore_Integration(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set; skipping Firestore integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	client, err := firestore.NewClient(ctx, "test-project")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	s, err := entitystore.NewFirestoreStore(&entitystore.FirestoreConfig{
		MoviesCollection: "movies-" + suffix,
		GenresCollection: "genres-" + suffix,
	}, client, zerolog.Nop())
	require.NoError(t, err)

	drama, err := s.CreateGenre(ctx, catalog.Genre{Name: "Drama"})
	require.NoError(t, err)
	require.NotEmpty(t, drama.ID)

	movie, err := s.CreateMovie(ctx, newMovie("Heat", drama.ID))
	require.NoError(t, err)
	require.NotEmpty(t, movie.ID)

	t.Run("Get movie", func(t *testing.T) {
		got, err := s.GetMovie(ctx, movie.ID)
		require.NoError(t, err)
		assert.Equal(t, movie, got)
	})

	t.Run("Missing movie", func(t *testing.T) {
		_, err := s.GetMovie(ctx, "does-not-exist")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
		_, err = s.GetMovie(ctx, "bad/id")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})

	t.Run("Fan-out appends without dedup", func(t *testing.T) {
		require.NoError(t, s.AppendMovieToGenres(ctx, movie.ID, []string{drama.ID, "no-such-genre"}))
		require.NoError(t, s.AppendMovieToGenres(ctx, movie.ID, []string{drama.ID}))

		g, err := s.GetGenre(ctx, drama.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{movie.ID, movie.ID}, g.Movies)

		expanded, err := s.GetGenreWithMovies(ctx, drama.ID)
		require.NoError(t, err)
		assert.Len(t, expanded.Movies, 2)
	})

	t.Run("Update and delete", func(t *testing.T) {
		rating := "9.1"
		updated, err := s.UpdateMovie(ctx, movie.ID, catalog.MoviePatch{Rating: &rating})
		require.NoError(t, err)
		assert.Equal(t, "9.1", updated.Rating)
		assert.Equal(t, movie.Name, updated.Name)

		_, err = s.DeleteMovie(ctx, movie.ID)
		require.NoError(t, err)
		_, err = s.DeleteMovie(ctx, movie.ID)
		assert.ErrorIs(t, err, catalog.ErrNotFound)

		all, err := s.ListGenresWithMovies(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Empty(t, all[0].Movies, "dangling references are dropped from the expansion")
	})
}
