package catalog

import "time"

// DefaultTTL is the absolute lifetime of every cache entry written by the catalog.
const DefaultTTL = 3600 * time.Second

// Cache keys. These names are shared with any other writer of the same cache and
// must not change.
const (
	KeyAllMovies           = "movies:all"
	KeyAllGenres           = "genres:all"
	KeyAllGenresWithMovies = "genres:all-with-movies"
)

// MovieKey is the cache key for a single movie.
func MovieKey(id string) string {
	return "movie:" + id
}

// GenreKey is the cache key for a single genre.
func GenreKey(id string) string {
	return "genre:" + id
}

// GenreMoviesKey is the cache key for the expanded movie list of a genre.
func GenreMoviesKey(id string) string {
	return "genre:" + id + ":movies"
}
