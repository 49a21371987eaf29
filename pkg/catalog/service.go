package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/illmade-knight/go-catalog/pkg/events"
	"github.com/rs/zerolog"
)

// ImageUploader stores an image and returns the reference recorded on a movie.
type ImageUploader interface {
	Upload(ctx context.Context, movieID, contentType string, r io.Reader) (string, error)
}

// ServiceConfig tunes the catalog service.
type ServiceConfig struct {
	// InvalidateGenreViewsOnMovieWrite also drops genres:all-with-movies and the
	// genre:<id> and genre:<id>:movies keys of the written movie's genres after
	// a movie write.
	// Off by default: those views are otherwise refreshed only by TTL or by
	// InvalidateKeys.
	InvalidateGenreViewsOnMovieWrite bool `yaml:"invalidate_genre_views_on_movie_write"`
}

// Service exposes the catalog operations. Reads go through Fetch and writes
// through Mutate, so each operation declares exactly which keys it touches.
type Service struct {
	cfg       ServiceConfig
	store     EntityStore
	accessor  *Accessor
	validator *Validator
	publisher events.Publisher
	images    ImageUploader
	now       func() time.Time
	logger    zerolog.Logger
}

// NewService wires a Service. publisher and images may be nil.
func NewService(
	cfg ServiceConfig,
	store EntityStore,
	accessor *Accessor,
	publisher events.Publisher,
	images ImageUploader,
	logger zerolog.Logger,
) (*Service, error) {
	if store == nil {
		return nil, errors.New("entity store cannot be nil")
	}
	if accessor == nil {
		return nil, errors.New("cache accessor cannot be nil")
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		cfg:       cfg,
		store:     store,
		accessor:  accessor,
		validator: NewValidator(),
		publisher: publisher,
		images:    images,
		now:       time.Now,
		logger:    logger.With().Str("component", "CatalogService").Logger(),
	}, nil
}

// ListMovies returns every movie, cached under movies:all.
func (s *Service) ListMovies(ctx context.Context) ([]Movie, error) {
	return Fetch(ctx, s.accessor, KeyAllMovies, s.store.ListMovies)
}

// GetMovie returns one movie, cached under movie:<id>.
func (s *Service) GetMovie(ctx context.Context, id string) (Movie, error) {
	return Fetch(ctx, s.accessor, MovieKey(id), func(ctx context.Context) (Movie, error) {
		return s.store.GetMovie(ctx, id)
	})
}

// CreateMovie validates and stores a movie, appends it to its genres and
// invalidates movies:all.
//
// If the genre fan-out fails the movie stays persisted and the returned error
// wraps ErrRelationFanout alongside the created movie.
func (s *Service) CreateMovie(ctx context.Context, in MovieInput) (Movie, error) {
	if err := s.validator.Struct(in); err != nil {
		return Movie{}, err
	}
	movie, err := Mutate(ctx, s.accessor,
		func(ctx context.Context) (Movie, error) {
			return s.store.CreateMovie(ctx, in.Movie())
		},
		func(Movie) []Effect {
			return InvalidateAll(KeyAllMovies)
		},
	)
	if err != nil {
		return Movie{}, fmt.Errorf("create movie: %w", err)
	}
	s.publish(ctx, events.EntityMovie, events.ActionCreated, movie.ID)

	if err := s.linkGenres(ctx, movie.ID, movie.Genres); err != nil {
		return movie, err
	}
	return movie, nil
}

// UpdateMovie applies patch to a movie, appends it to any genres in the patch
// and invalidates movies:all and movie:<id>.
func (s *Service) UpdateMovie(ctx context.Context, id string, patch MoviePatch) (Movie, error) {
	if err := s.validator.Struct(patch); err != nil {
		return Movie{}, err
	}
	// Genres the movie leaves still embed it, so their views are stale too.
	var previousGenres []string
	movie, err := Mutate(ctx, s.accessor,
		func(ctx context.Context) (Movie, error) {
			if s.cfg.InvalidateGenreViewsOnMovieWrite && patch.Genres != nil {
				prev, err := s.store.GetMovie(ctx, id)
				if err != nil {
					return Movie{}, err
				}
				previousGenres = prev.Genres
			}
			return s.store.UpdateMovie(ctx, id, patch)
		},
		func(m Movie) []Effect {
			effects := InvalidateAll(KeyAllMovies, MovieKey(id))
			if s.cfg.InvalidateGenreViewsOnMovieWrite {
				effects = append(effects, genreViewEffects(union(previousGenres, m.Genres))...)
			}
			return effects
		},
	)
	if err != nil {
		return Movie{}, fmt.Errorf("update movie %s: %w", id, err)
	}
	s.publish(ctx, events.EntityMovie, events.ActionUpdated, movie.ID)

	if err := s.linkGenres(ctx, movie.ID, patch.Genres); err != nil {
		return movie, err
	}
	return movie, nil
}

// DeleteMovie removes a movie and invalidates movies:all and movie:<id>.
// Genre back-references to the movie are left in place.
func (s *Service) DeleteMovie(ctx context.Context, id string) (Movie, error) {
	movie, err := Mutate(ctx, s.accessor,
		func(ctx context.Context) (Movie, error) {
			return s.store.DeleteMovie(ctx, id)
		},
		func(m Movie) []Effect {
			effects := InvalidateAll(KeyAllMovies, MovieKey(id))
			if s.cfg.InvalidateGenreViewsOnMovieWrite {
				effects = append(effects, genreViewEffects(m.Genres)...)
			}
			return effects
		},
	)
	if err != nil {
		return Movie{}, fmt.Errorf("delete movie %s: %w", id, err)
	}
	s.publish(ctx, events.EntityMovie, events.ActionDeleted, movie.ID)
	return movie, nil
}

// SetMovieImage uploads an image for a movie and records its reference.
func (s *Service) SetMovieImage(ctx context.Context, id, contentType string, r io.Reader) (Movie, error) {
	if s.images == nil {
		return Movie{}, ErrImagesDisabled
	}
	if _, err := s.store.GetMovie(ctx, id); err != nil {
		return Movie{}, fmt.Errorf("set image for movie %s: %w", id, err)
	}
	ref, err := s.images.Upload(ctx, id, contentType, r)
	if err != nil {
		return Movie{}, fmt.Errorf("upload image for movie %s: %w", id, err)
	}
	return s.UpdateMovie(ctx, id, MoviePatch{Image: &ref})
}

// ListGenres returns every genre, cached under genres:all.
func (s *Service) ListGenres(ctx context.Context) ([]Genre, error) {
	return Fetch(ctx, s.accessor, KeyAllGenres, s.store.ListGenres)
}

// ListGenresWithMovies returns every genre with its movies expanded, cached
// under genres:all-with-movies.
func (s *Service) ListGenresWithMovies(ctx context.Context) ([]GenreWithMovies, error) {
	return Fetch(ctx, s.accessor, KeyAllGenresWithMovies, s.store.ListGenresWithMovies)
}

// GetGenre returns one genre, cached under genre:<id>.
func (s *Service) GetGenre(ctx context.Context, id string) (Genre, error) {
	return Fetch(ctx, s.accessor, GenreKey(id), func(ctx context.Context) (Genre, error) {
		return s.store.GetGenre(ctx, id)
	})
}

// ListGenreMovies returns the expanded movies of a genre, cached under
// genre:<id>:movies.
func (s *Service) ListGenreMovies(ctx context.Context, id string) ([]Movie, error) {
	return Fetch(ctx, s.accessor, GenreMoviesKey(id), func(ctx context.Context) ([]Movie, error) {
		g, err := s.store.GetGenreWithMovies(ctx, id)
		if err != nil {
			return nil, err
		}
		return g.Movies, nil
	})
}

// CreateGenre stores a genre, writes it to genre:<id> and invalidates the
// genre collection keys.
func (s *Service) CreateGenre(ctx context.Context, in GenreInput) (Genre, error) {
	if err := s.validator.Struct(in); err != nil {
		return Genre{}, err
	}
	genre, err := Mutate(ctx, s.accessor,
		func(ctx context.Context) (Genre, error) {
			return s.store.CreateGenre(ctx, Genre{Name: in.Name, Movies: []string{}})
		},
		func(g Genre) []Effect {
			return []Effect{
				Refresh(GenreKey(g.ID), g),
				Invalidate(KeyAllGenres),
				Invalidate(KeyAllGenresWithMovies),
			}
		},
	)
	if err != nil {
		return Genre{}, fmt.Errorf("create genre: %w", err)
	}
	s.publish(ctx, events.EntityGenre, events.ActionCreated, genre.ID)
	return genre, nil
}

// DeleteGenre removes a genre and invalidates every key that could hold it.
// Movies keep the deleted id in their genre lists.
func (s *Service) DeleteGenre(ctx context.Context, id string) (Genre, error) {
	genre, err := Mutate(ctx, s.accessor,
		func(ctx context.Context) (Genre, error) {
			return s.store.DeleteGenre(ctx, id)
		},
		func(Genre) []Effect {
			return InvalidateAll(GenreKey(id), GenreMoviesKey(id), KeyAllGenres, KeyAllGenresWithMovies)
		},
	)
	if err != nil {
		return Genre{}, fmt.Errorf("delete genre %s: %w", id, err)
	}
	s.publish(ctx, events.EntityGenre, events.ActionDeleted, genre.ID)
	return genre, nil
}

// InvalidateKeys drops arbitrary cache keys, e.g. to force the genre views to
// be rebuilt after movie writes.
func (s *Service) InvalidateKeys(ctx context.Context, keys ...string) error {
	return s.accessor.InvalidateKeys(ctx, keys...)
}

// linkGenres appends movieID to each genre's back-reference list. It runs after
// the movie write has been committed and its cache effects applied.
func (s *Service) linkGenres(ctx context.Context, movieID string, genreIDs []string) error {
	if len(genreIDs) == 0 {
		return nil
	}
	err := s.store.AppendMovieToGenres(ctx, movieID, genreIDs)
	if s.cfg.InvalidateGenreViewsOnMovieWrite {
		// Some genres may have been updated even when the fan-out failed.
		s.accessor.Apply(ctx, genreViewEffects(genreIDs)...)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("movie_id", movieID).Strs("genre_ids", genreIDs).Msg("Movie persisted without genre back-references.")
		return fmt.Errorf("%w: movie %s: %w", ErrRelationFanout, movieID, err)
	}
	return nil
}

func genreViewEffects(genreIDs []string) []Effect {
	effects := []Effect{Invalidate(KeyAllGenresWithMovies)}
	for _, id := range genreIDs {
		effects = append(effects, Invalidate(GenreKey(id)), Invalidate(GenreMoviesKey(id)))
	}
	return effects
}

// union returns the distinct ids of a followed by those of b, in order.
func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, id := range append(append([]string{}, a...), b...) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (s *Service) publish(ctx context.Context, entity string, action events.Action, id string) {
	evt := events.ChangeEvent{Entity: entity, Action: action, ID: id, OccurredAt: s.now().UTC()}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn().Err(err).Str("entity", entity).Str("id", id).Msg("Failed to publish change event.")
	}
}
