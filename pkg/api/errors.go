package api

import (
	"errors"
	"net/http"

	"github.com/illmade-knight/go-catalog/pkg/catalog"
)

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorBody{Error: message})
}

func (h *Handler) badRequestResponse(w http.ResponseWriter, err error) {
	h.errorResponse(w, http.StatusBadRequest, err.Error())
}

func (h *Handler) notFoundResponse(w http.ResponseWriter) {
	h.errorResponse(w, http.StatusNotFound, "the requested resource could not be found")
}

func (h *Handler) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed.")
	h.errorResponse(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func (h *Handler) rateLimitExceededResponse(w http.ResponseWriter) {
	h.errorResponse(w, http.StatusTooManyRequests, "rate limit exceeded")
}

// serviceError maps a catalog error onto the response taxonomy.
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *catalog.ValidationError
	switch {
	case errors.As(err, &verr):
		h.writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, catalog.ErrNotFound):
		h.notFoundResponse(w)
	case errors.Is(err, catalog.ErrRelationFanout):
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Write committed but genre links failed.")
		h.errorResponse(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, catalog.ErrImagesDisabled):
		h.errorResponse(w, http.StatusNotImplemented, err.Error())
	default:
		h.serverErrorResponse(w, r, err)
	}
}
