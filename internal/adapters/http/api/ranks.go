package api

import (
	"errors"
	"net/http"
)

// RanksHandler serves the persisted snapshot collection.
type RanksHandler struct {
	deps Dependencies
}

// NewRanksHandler creates a new ranks handler.
func NewRanksHandler(deps Dependencies) *RanksHandler {
	return &RanksHandler{deps: deps}
}

// HandleGetRanks handles GET /ranks requests.
func (h *RanksHandler) HandleGetRanks(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ranks"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	c, err := h.deps.Collection(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleGetTier handles GET /ranks/{tier} requests.
func (h *RanksHandler) HandleGetTier(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_tier"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	c, err := h.deps.TierSnapshots(r.Context(), r.PathValue("tier"))
	if isNotFound(err) {
		err = NotFound(op, err)
	}
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}
