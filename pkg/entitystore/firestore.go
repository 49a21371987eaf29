package entitystore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/illmade-knight/go-catalog/pkg/catalog"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreConfig holds the collection names used by FirestoreStore.
type FirestoreConfig struct {
	MoviesCollection string `yaml:"movies_collection"`
	GenresCollection string `yaml:"genres_collection"`
	// FanoutConcurrency bounds parallel genre updates in AppendMovieToGenres.
	FanoutConcurrency int `yaml:"fanout_concurrency"`
}

// FirestoreStore is a catalog.EntityStore backed by two Firestore collections.
// Document ids are assigned by Firestore.
type FirestoreStore struct {
	client            *firestore.Client
	movies            string
	genres            string
	fanoutConcurrency int
	logger            zerolog.Logger
}

// NewFirestoreStore creates a new FirestoreStore.
func NewFirestoreStore(cfg *FirestoreConfig, client *firestore.Client, logger zerolog.Logger) (*FirestoreStore, error) {
	if client == nil {
		return nil, errors.New("firestore client cannot be nil")
	}
	if cfg.MoviesCollection == "" || cfg.GenresCollection == "" {
		return nil, errors.New("movies and genres collection names are required")
	}
	concurrency := cfg.FanoutConcurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	logger.Info().
		Str("movies_collection", cfg.MoviesCollection).
		Str("genres_collection", cfg.GenresCollection).
		Msg("FirestoreStore initialized.")
	return &FirestoreStore{
		client:            client,
		movies:            cfg.MoviesCollection,
		genres:            cfg.GenresCollection,
		fanoutConcurrency: concurrency,
		logger:            logger.With().Str("component", "FirestoreEntityStore").Logger(),
	}, nil
}

// docRef returns nil for ids Firestore cannot address; callers treat that as not found.
func (s *FirestoreStore) docRef(collection, id string) *firestore.DocumentRef {
	if id == "" || strings.Contains(id, "/") {
		return nil
	}
	return s.client.Collection(collection).Doc(id)
}

func mapGetErr(err error, what, id string) error {
	if status.Code(err) == codes.NotFound {
		return catalog.ErrNotFound
	}
	return fmt.Errorf("firestore get %s %s: %w", what, id, err)
}

func (s *FirestoreStore) ListMovies(ctx context.Context) ([]catalog.Movie, error) {
	docs, err := s.client.Collection(s.movies).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore list movies: %w", err)
	}
	out := make([]catalog.Movie, 0, len(docs))
	for _, doc := range docs {
		m, err := movieFromSnapshot(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *FirestoreStore) GetMovie(ctx context.Context, id string) (catalog.Movie, error) {
	ref := s.docRef(s.movies, id)
	if ref == nil {
		return catalog.Movie{}, catalog.ErrNotFound
	}
	doc, err := ref.Get(ctx)
	if err != nil {
		return catalog.Movie{}, mapGetErr(err, "movie", id)
	}
	return movieFromSnapshot(doc)
}

func (s *FirestoreStore) CreateMovie(ctx context.Context, m catalog.Movie) (catalog.Movie, error) {
	ref := s.client.Collection(s.movies).NewDoc()
	m = m.Normalize()
	if _, err := ref.Create(ctx, m); err != nil {
		return catalog.Movie{}, fmt.Errorf("firestore create movie: %w", err)
	}
	m.ID = ref.ID
	s.logger.Debug().Str("movie_id", m.ID).Msg("Created movie.")
	return m, nil
}

func (s *FirestoreStore) UpdateMovie(ctx context.Context, id string, patch catalog.MoviePatch) (catalog.Movie, error) {
	ref := s.docRef(s.movies, id)
	if ref == nil {
		return catalog.Movie{}, catalog.ErrNotFound
	}
	var updated catalog.Movie
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return mapGetErr(err, "movie", id)
		}
		current, err := movieFromSnapshot(doc)
		if err != nil {
			return err
		}
		updated = patch.Apply(current).Normalize()
		return tx.Set(ref, updated)
	})
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.Movie{}, err
		}
		return catalog.Movie{}, fmt.Errorf("firestore update movie %s: %w", id, err)
	}
	return updated, nil
}

func (s *FirestoreStore) DeleteMovie(ctx context.Context, id string) (catalog.Movie, error) {
	ref := s.docRef(s.movies, id)
	if ref == nil {
		return catalog.Movie{}, catalog.ErrNotFound
	}
	var deleted catalog.Movie
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return mapGetErr(err, "movie", id)
		}
		if deleted, err = movieFromSnapshot(doc); err != nil {
			return err
		}
		return tx.Delete(ref)
	})
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.Movie{}, err
		}
		return catalog.Movie{}, fmt.Errorf("firestore delete movie %s: %w", id, err)
	}
	return deleted, nil
}

// AppendMovieToGenres updates every genre in its own transaction, in parallel.
// A plain append is used rather than firestore.ArrayUnion, which would
// deduplicate the back-reference list.
func (s *FirestoreStore) AppendMovieToGenres(ctx context.Context, movieID string, genreIDs []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanoutConcurrency)
	for _, gid := range genreIDs {
		ref := s.docRef(s.genres, gid)
		if ref == nil {
			continue
		}
		g.Go(func() error {
			err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
				doc, err := tx.Get(ref)
				if err != nil {
					return mapGetErr(err, "genre", gid)
				}
				var genre catalog.Genre
				if err := doc.DataTo(&genre); err != nil {
					return fmt.Errorf("decode genre %s: %w", gid, err)
				}
				return tx.Update(ref, []firestore.Update{{Path: "movies", Value: append(genre.Movies, movieID)}})
			})
			if errors.Is(err, catalog.ErrNotFound) {
				s.logger.Warn().Str("genre_id", gid).Str("movie_id", movieID).Msg("Movie references a genre that does not exist.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("append movie %s to genre %s: %w", movieID, gid, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *FirestoreStore) ListGenres(ctx context.Context) ([]catalog.Genre, error) {
	docs, err := s.client.Collection(s.genres).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore list genres: %w", err)
	}
	out := make([]catalog.Genre, 0, len(docs))
	for _, doc := range docs {
		genre, err := genreFromSnapshot(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, genre)
	}
	return out, nil
}

func (s *FirestoreStore) ListGenresWithMovies(ctx context.Context) ([]catalog.GenreWithMovies, error) {
	genres, err := s.ListGenres(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, g := range genres {
		ids = append(ids, g.Movies...)
	}
	movies, err := s.moviesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.GenreWithMovies, 0, len(genres))
	for _, g := range genres {
		out = append(out, expandGenre(g, movies))
	}
	return out, nil
}

func (s *FirestoreStore) GetGenre(ctx context.Context, id string) (catalog.Genre, error) {
	ref := s.docRef(s.genres, id)
	if ref == nil {
		return catalog.Genre{}, catalog.ErrNotFound
	}
	doc, err := ref.Get(ctx)
	if err != nil {
		return catalog.Genre{}, mapGetErr(err, "genre", id)
	}
	return genreFromSnapshot(doc)
}

func (s *FirestoreStore) GetGenreWithMovies(ctx context.Context, id string) (catalog.GenreWithMovies, error) {
	genre, err := s.GetGenre(ctx, id)
	if err != nil {
		return catalog.GenreWithMovies{}, err
	}
	movies, err := s.moviesByID(ctx, genre.Movies)
	if err != nil {
		return catalog.GenreWithMovies{}, err
	}
	return expandGenre(genre, movies), nil
}

func (s *FirestoreStore) CreateGenre(ctx context.Context, g catalog.Genre) (catalog.Genre, error) {
	ref := s.client.Collection(s.genres).NewDoc()
	g = g.Normalize()
	if _, err := ref.Create(ctx, g); err != nil {
		return catalog.Genre{}, fmt.Errorf("firestore create genre: %w", err)
	}
	g.ID = ref.ID
	s.logger.Debug().Str("genre_id", g.ID).Msg("Created genre.")
	return g, nil
}

func (s *FirestoreStore) DeleteGenre(ctx context.Context, id string) (catalog.Genre, error) {
	ref := s.docRef(s.genres, id)
	if ref == nil {
		return catalog.Genre{}, catalog.ErrNotFound
	}
	var deleted catalog.Genre
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return mapGetErr(err, "genre", id)
		}
		if deleted, err = genreFromSnapshot(doc); err != nil {
			return err
		}
		return tx.Delete(ref)
	})
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.Genre{}, err
		}
		return catalog.Genre{}, fmt.Errorf("firestore delete genre %s: %w", id, err)
	}
	return deleted, nil
}

// Ping reads at most one genre document.
func (s *FirestoreStore) Ping(ctx context.Context) error {
	iter := s.client.Collection(s.genres).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore ping failed: %w", err)
	}
	return nil
}

// moviesByID fetches the distinct movies in ids with a single batched read.
// Ids without a document are absent from the result.
func (s *FirestoreStore) moviesByID(ctx context.Context, ids []string) (map[string]catalog.Movie, error) {
	seen := make(map[string]bool, len(ids))
	var refs []*firestore.DocumentRef
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if ref := s.docRef(s.movies, id); ref != nil {
			refs = append(refs, ref)
		}
	}
	out := make(map[string]catalog.Movie, len(refs))
	if len(refs) == 0 {
		return out, nil
	}
	docs, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("firestore get movies: %w", err)
	}
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		m, err := movieFromSnapshot(doc)
		if err != nil {
			return nil, err
		}
		out[m.ID] = m
	}
	return out, nil
}

func expandGenre(g catalog.Genre, movies map[string]catalog.Movie) catalog.GenreWithMovies {
	out := catalog.GenreWithMovies{ID: g.ID, Name: g.Name, Movies: []catalog.Movie{}}
	for _, id := range g.Movies {
		if m, ok := movies[id]; ok {
			out.Movies = append(out.Movies, m)
		}
	}
	return out
}

func movieFromSnapshot(doc *firestore.DocumentSnapshot) (catalog.Movie, error) {
	var m catalog.Movie
	if err := doc.DataTo(&m); err != nil {
		return catalog.Movie{}, fmt.Errorf("decode movie %s: %w", doc.Ref.ID, err)
	}
	m.ID = doc.Ref.ID
	return m.Normalize(), nil
}

func genreFromSnapshot(doc *firestore.DocumentSnapshot) (catalog.Genre, error) {
	var g catalog.Genre
	if err := doc.DataTo(&g); err != nil {
		return catalog.Genre{}, fmt.Errorf("decode genre %s: %w", doc.Ref.ID, err)
	}
	g.ID = doc.Ref.ID
	return g.Normalize(), nil
}
