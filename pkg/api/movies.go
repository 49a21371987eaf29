package api

import (
	"mime"
	"net/http"
	"strings"

	"github.com/illmade-knight/go-catalog/pkg/catalog"
	"github.com/julienschmidt/httprouter"
)

const maxImageBytes = 10 << 20

func (h *Handler) listMoviesHandler(w http.ResponseWriter, r *http.Request) {
	movies, err := h.service.ListMovies(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, movies)
}

func (h *Handler) showMovieHandler(w http.ResponseWriter, r *http.Request) {
	id := httprouter.ParamsFromContext(r.Context()).ByName("id")
	movie, err := h.service.GetMovie(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, movie)
}

func (h *Handler) createMovieHandler(w http.ResponseWriter, r *http.Request) {
	var input catalog.MovieInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, err)
		return
	}
	movie, err := h.service.CreateMovie(r.Context(), input)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/movies/"+movie.ID)
	h.writeJSON(w, http.StatusCreated, movie)
}

func (h *Handler) updateMovieHandler(w http.ResponseWriter, r *http.Request) {
	id := httprouter.ParamsFromContext(r.Context()).ByName("id")
	var patch catalog.MoviePatch
	if err := readJSON(w, r, &patch); err != nil {
		h.badRequestResponse(w, err)
		return
	}
	movie, err := h.service.UpdateMovie(r.Context(), id, patch)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, movie)
}

func (h *Handler) deleteMovieHandler(w http.ResponseWriter, r *http.Request) {
	id := httprouter.ParamsFromContext(r.Context()).ByName("id")
	movie, err := h.service.DeleteMovie(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, movie)
}

func (h *Handler) setMovieImageHandler(w http.ResponseWriter, r *http.Request) {
	id := httprouter.ParamsFromContext(r.Context()).ByName("id")

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		h.errorResponse(w, http.StatusUnsupportedMediaType, "request body must be an image")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	movie, err := h.service.SetMovieImage(r.Context(), id, mediaType, r.Body)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, movie)
}
