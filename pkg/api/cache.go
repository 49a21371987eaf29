package api

import (
	"errors"
	"net/http"
)

// invalidateCacheHandler drops the cache keys named by repeated key query
// parameters.
func (h *Handler) invalidateCacheHandler(w http.ResponseWriter, r *http.Request) {
	keys := r.URL.Query()["key"]
	if len(keys) == 0 {
		h.badRequestResponse(w, errors.New("at least one key query parameter is required"))
		return
	}
	if err := h.service.InvalidateKeys(r.Context(), keys...); err != nil {
		h.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
