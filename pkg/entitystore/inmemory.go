// Package entitystore provides catalog.EntityStore implementations: Firestore for
// deployments and an in-memory store for local development and tests.
package entitystore

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/illmade-knight/go-catalog/pkg/catalog"
)

// InMemoryStore is a thread-safe catalog.EntityStore held in maps. Listing
// returns records in insertion order.
type InMemoryStore struct {
	mu         sync.RWMutex
	movies     map[string]catalog.Movie
	movieOrder []string
	genres     map[string]catalog.Genre
	genreOrder []string
	newID      func() string
}

// NewInMemoryStore creates an empty store that assigns UUID identifiers.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		movies: make(map[string]catalog.Movie),
		genres: make(map[string]catalog.Genre),
		newID:  uuid.NewString,
	}
}

func (s *InMemoryStore) ListMovies(_ context.Context) ([]catalog.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Movie, 0, len(s.movieOrder))
	for _, id := range s.movieOrder {
		out = append(out, cloneMovie(s.movies[id]))
	}
	return out, nil
}

func (s *InMemoryStore) GetMovie(_ context.Context, id string) (catalog.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.movies[id]
	if !ok {
		return catalog.Movie{}, catalog.ErrNotFound
	}
	return cloneMovie(m), nil
}

func (s *InMemoryStore) CreateMovie(_ context.Context, m catalog.Movie) (catalog.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m = cloneMovie(m)
	m.ID = s.newID()
	s.movies[m.ID] = m
	s.movieOrder = append(s.movieOrder, m.ID)
	return cloneMovie(m), nil
}

func (s *InMemoryStore) UpdateMovie(_ context.Context, id string, patch catalog.MoviePatch) (catalog.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[id]
	if !ok {
		return catalog.Movie{}, catalog.ErrNotFound
	}
	m = cloneMovie(patch.Apply(m))
	s.movies[id] = m
	return cloneMovie(m), nil
}

func (s *InMemoryStore) DeleteMovie(_ context.Context, id string) (catalog.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[id]
	if !ok {
		return catalog.Movie{}, catalog.ErrNotFound
	}
	delete(s.movies, id)
	s.movieOrder = slices.DeleteFunc(s.movieOrder, func(v string) bool { return v == id })
	return m, nil
}

func (s *InMemoryStore) AppendMovieToGenres(_ context.Context, movieID string, genreIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, gid := range genreIDs {
		g, ok := s.genres[gid]
		if !ok {
			continue
		}
		g.Movies = append(slices.Clone(g.Movies), movieID)
		s.genres[gid] = g
	}
	return nil
}

func (s *InMemoryStore) ListGenres(_ context.Context) ([]catalog.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Genre, 0, len(s.genreOrder))
	for _, id := range s.genreOrder {
		out = append(out, cloneGenre(s.genres[id]))
	}
	return out, nil
}

func (s *InMemoryStore) ListGenresWithMovies(_ context.Context) ([]catalog.GenreWithMovies, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.GenreWithMovies, 0, len(s.genreOrder))
	for _, id := range s.genreOrder {
		out = append(out, s.expand(s.genres[id]))
	}
	return out, nil
}

func (s *InMemoryStore) GetGenre(_ context.Context, id string) (catalog.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.genres[id]
	if !ok {
		return catalog.Genre{}, catalog.ErrNotFound
	}
	return cloneGenre(g), nil
}

func (s *InMemoryStore) GetGenreWithMovies(_ context.Context, id string) (catalog.GenreWithMovies, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.genres[id]
	if !ok {
		return catalog.GenreWithMovies{}, catalog.ErrNotFound
	}
	return s.expand(g), nil
}

func (s *InMemoryStore) CreateGenre(_ context.Context, g catalog.Genre) (catalog.Genre, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g = cloneGenre(g)
	g.ID = s.newID()
	s.genres[g.ID] = g
	s.genreOrder = append(s.genreOrder, g.ID)
	return cloneGenre(g), nil
}

func (s *InMemoryStore) DeleteGenre(_ context.Context, id string) (catalog.Genre, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.genres[id]
	if !ok {
		return catalog.Genre{}, catalog.ErrNotFound
	}
	delete(s.genres, id)
	s.genreOrder = slices.DeleteFunc(s.genreOrder, func(v string) bool { return v == id })
	return g, nil
}

// Ping always succeeds.
func (s *InMemoryStore) Ping(context.Context) error {
	return nil
}

// expand must be called with the lock held. Dangling movie ids are dropped.
func (s *InMemoryStore) expand(g catalog.Genre) catalog.GenreWithMovies {
	out := catalog.GenreWithMovies{ID: g.ID, Name: g.Name, Movies: []catalog.Movie{}}
	for _, mid := range g.Movies {
		if m, ok := s.movies[mid]; ok {
			out.Movies = append(out.Movies, cloneMovie(m))
		}
	}
	return out
}

func cloneMovie(m catalog.Movie) catalog.Movie {
	m.Actors = slices.Clone(m.Actors)
	m.Genres = slices.Clone(m.Genres)
	return m.Normalize()
}

func cloneGenre(g catalog.Genre) catalog.Genre {
	g.Movies = slices.Clone(g.Movies)
	return g.Normalize()
}
