// Package api exposes the catalog service over HTTP.
package api

import (
	"context"
	"io"

	"github.com/illmade-knight/go-catalog/pkg/catalog"
	"github.com/rs/zerolog"
)

// CatalogService is the set of catalog operations served over HTTP.
type CatalogService interface {
	ListMovies(ctx context.Context) ([]catalog.Movie, error)
	GetMovie(ctx context.Context, id string) (catalog.Movie, error)
	CreateMovie(ctx context.Context, in catalog.MovieInput) (catalog.Movie, error)
	UpdateMovie(ctx context.Context, id string, patch catalog.MoviePatch) (catalog.Movie, error)
	DeleteMovie(ctx context.Context, id string) (catalog.Movie, error)
	SetMovieImage(ctx context.Context, id, contentType string, r io.Reader) (catalog.Movie, error)

	ListGenres(ctx context.Context) ([]catalog.Genre, error)
	ListGenresWithMovies(ctx context.Context) ([]catalog.GenreWithMovies, error)
	GetGenre(ctx context.Context, id string) (catalog.Genre, error)
	ListGenreMovies(ctx context.Context, id string) ([]catalog.Movie, error)
	CreateGenre(ctx context.Context, in catalog.GenreInput) (catalog.Genre, error)
	DeleteGenre(ctx context.Context, id string) (catalog.Genre, error)

	InvalidateKeys(ctx context.Context, keys ...string) error
}

// RateLimitConfig bounds the request rate across all clients.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// Handler serves the catalog routes.
type Handler struct {
	service   CatalogService
	rateLimit RateLimitConfig
	logger    zerolog.Logger
}

// NewHandler creates a Handler for service.
func NewHandler(service CatalogService, rateLimit RateLimitConfig, logger zerolog.Logger) *Handler {
	return &Handler{
		service:   service,
		rateLimit: rateLimit,
		logger:    logger.With().Str("component", "CatalogAPI").Logger(),
	}
}
