package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// Routes builds the router with every catalog route and the shared middleware.
func (h *Handler) Routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.notFoundResponse(w)
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.errorResponse(w, http.StatusMethodNotAllowed, "the "+r.Method+" method is not supported for this resource")
	})

	router.HandlerFunc(http.MethodGet, "/movies", h.listMoviesHandler)
	router.HandlerFunc(http.MethodPost, "/movies", h.createMovieHandler)
	router.HandlerFunc(http.MethodGet, "/movies/:id", h.showMovieHandler)
	router.HandlerFunc(http.MethodPut, "/movies/:id", h.updateMovieHandler)
	router.HandlerFunc(http.MethodDelete, "/movies/:id", h.deleteMovieHandler)
	router.HandlerFunc(http.MethodPut, "/movies/:id/image", h.setMovieImageHandler)

	router.HandlerFunc(http.MethodGet, "/genres", h.listGenresHandler)
	router.HandlerFunc(http.MethodPost, "/genres", h.createGenreHandler)
	router.HandlerFunc(http.MethodGet, "/genres/:genreId", h.showGenreHandler)
	router.HandlerFunc(http.MethodDelete, "/genres/:genreId", h.deleteGenreHandler)
	router.HandlerFunc(http.MethodGet, "/genres/:genreId/movies", h.listGenreMoviesHandler)
	router.HandlerFunc(http.MethodGet, "/genres-movies", h.listGenresWithMoviesHandler)

	router.HandlerFunc(http.MethodDelete, "/cache", h.invalidateCacheHandler)

	return h.recoverPanic(h.logRequest(h.limit(router)))
}
