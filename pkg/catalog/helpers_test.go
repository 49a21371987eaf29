package catalog_test

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/illmade-knight/go-catalog/pkg/cache"
	"github.com/illmade-knight/go-catalog/pkg/catalog"
	"github.com/illmade-knight/go-catalog/pkg/events"
)

// fakeClock is a manually advanced time source for cache expiry.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
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

// flakyCache wraps an in-memory cache store and can be told to fail.
type flakyCache struct {
	*cache.InMemoryStore
	getErr    error
	setErr    error
	deleteErr error
	deletes   atomic.Int32
}

func (c *flakyCache) Get(ctx context.Context, key string) (string, error) {
	if c.getErr != nil {
		return "", c.getErr
	}
	return c.InMemoryStore.Get(ctx, key)
}

func (c *flakyCache) SetWithExpiry(ctx context.Context, key string, ttl time.Duration, value string) error {
	if c.setErr != nil {
		return c.setErr
	}
	return c.InMemoryStore.SetWithExpiry(ctx, key, ttl, value)
}

func (c *flakyCache) Delete(ctx context.Context, key string) error {
	c.deletes.Add(1)
	if c.deleteErr != nil {
		return c.deleteErr
	}
	return c.InMemoryStore.Delete(ctx, key)
}

// countingStore counts read calls against the wrapped entity store so tests can
// tell cache hits from store queries.
type countingStore struct {
	catalog.EntityStore
	listMovies           atomic.Int32
	getMovie             atomic.Int32
	createMovie          atomic.Int32
	listGenres           atomic.Int32
	listGenresWithMovies atomic.Int32
	getGenre             atomic.Int32
	getGenreWithMovies   atomic.Int32
	appendErr            error
}

func (s *countingStore) ListMovies(ctx context.Context) ([]catalog.Movie, error) {
	s.listMovies.Add(1)
	return s.EntityStore.ListMovies(ctx)
}

func (s *countingStore) GetMovie(ctx context.Context, id string) (catalog.Movie, error) {
	s.getMovie.Add(1)
	return s.EntityStore.GetMovie(ctx, id)
}

func (s *countingStore) CreateMovie(ctx context.Context, m catalog.Movie) (catalog.Movie, error) {
	s.createMovie.Add(1)
	return s.EntityStore.CreateMovie(ctx, m)
}

func (s *countingStore) AppendMovieToGenres(ctx context.Context, movieID string, genreIDs []string) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	return s.EntityStore.AppendMovieToGenres(ctx, movieID, genreIDs)
}

func (s *countingStore) ListGenres(ctx context.Context) ([]catalog.Genre, error) {
	s.listGenres.Add(1)
	return s.EntityStore.ListGenres(ctx)
}

func (s *countingStore) ListGenresWithMovies(ctx context.Context) ([]catalog.GenreWithMovies, error) {
	s.listGenresWithMovies.Add(1)
	return s.EntityStore.ListGenresWithMovies(ctx)
}

func (s *countingStore) GetGenre(ctx context.Context, id string) (catalog.Genre, error) {
	s.getGenre.Add(1)
	return s.EntityStore.GetGenre(ctx, id)
}

func (s *countingStore) GetGenreWithMovies(ctx context.Context, id string) (catalog.GenreWithMovies, error) {
	s.getGenreWithMovies.Add(1)
	return s.EntityStore.GetGenreWithMovies(ctx, id)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ChangeEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Stop() {}

func (p *recordingPublisher) Events() []events.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.ChangeEvent(nil), p.events...)
}

// mockUploader records uploads and returns a fixed reference.
type mockUploader struct {
	ref  string
	err  error
	body string
}

func (u *mockUploader) Upload(_ context.Context, _ string, _ string, r io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	u.body = string(b)
	return u.ref, nil
}
