package api

import (
	"net/http"

	"github.com/illmade-knight/go-catalog/pkg/catalog"
	"github.com/julienschmidt/httprouter"
)

func (h *Handler) listGenresHandler(w http.ResponseWriter, r *http.Request) {
	genres, err := h.service.ListGenres(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, genres)
}

func (h *Handler) listGenresWithMoviesHandler(w http.ResponseWriter, r *http.Request) {
	genres, err := h.service.ListGenresWithMovies(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, genres)
}

func (h *Handler) showGenreHandler(w http.ResponseWriter, r *http.Request) {
	id := httprouter.ParamsFromContext(r.Context()).ByName("genreId")
	genre, err := h.service.GetGenre(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, genre)
}

func (h *Handler) listGenreMoviesHandler(w http.ResponseWriter, r *http.Request) {
	id := httprouter.ParamsFromContext(r.Context()).ByName("genreId")
	movies, err := h.service.ListGenreMovies(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, movies)
}

func (h *Handler) createGenreHandler(w http.ResponseWriter, r *http.Request) {
	var input catalog.GenreInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, err)
		return
	}
	genre, err := h.service.CreateGenre(r.Context(), input)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/genres/"+genre.ID)
	h.writeJSON(w, http.StatusCreated, genre)
}

func (h *Handler) deleteGenreHandler(w http.ResponseWriter, r *http.Request) {
	id := httprouter.ParamsFromContext(r.Context()).ByName("genreId")
	genre, err := h.service.DeleteGenre(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, genre)
}
