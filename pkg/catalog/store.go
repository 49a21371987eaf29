package catalog

import "context"

// EntityStore is the durable source of truth for movies and genres.
// Lookups and single-record writes return ErrNotFound for unknown ids.
type EntityStore interface {
	ListMovies(ctx context.Context) ([]Movie, error)
	GetMovie(ctx context.Context, id string) (Movie, error)
	CreateMovie(ctx context.Context, m Movie) (Movie, error)
	UpdateMovie(ctx context.Context, id string, patch MoviePatch) (Movie, error)
	DeleteMovie(ctx context.Context, id string) (Movie, error)

	// AppendMovieToGenres pushes movieID onto the movie list of every genre in
	// genreIDs. Duplicates are kept and unknown genre ids are skipped. Each
	// genre update is atomic on its own; the call as a whole is not.
	AppendMovieToGenres(ctx context.Context, movieID string, genreIDs []string) error

	ListGenres(ctx context.Context) ([]Genre, error)
	ListGenresWithMovies(ctx context.Context) ([]GenreWithMovies, error)
	GetGenre(ctx context.Context, id string) (Genre, error)
	GetGenreWithMovies(ctx context.Context, id string) (GenreWithMovies, error)
	CreateGenre(ctx context.Context, g Genre) (Genre, error)
	DeleteGenre(ctx context.Context, id string) (Genre, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
