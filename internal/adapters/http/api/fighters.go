package api

import (
	"context"
	"net/http"
)

// FightersDependencies defines what the fighters handler needs.
type FightersDependencies interface {
	Names(ctx context.Context) ([]string, error)
}

// FightersHandler serves the autocomplete name list.
type FightersHandler struct {
	deps FightersDependencies
}

// NewFightersHandler creates a new fighters handler.
func NewFightersHandler(deps FightersDependencies) *FightersHandler {
	return &FightersHandler{deps: deps}
}

// HandleFighters handles GET /api/fighters.
func (h *FightersHandler) HandleFighters(w http.ResponseWriter, r *http.Request) {
	const op = "api.fighters"
	names, err := h.deps.Names(r.Context())
	if err != nil {
		status, code := statusFor(err)
		writeError(w, status, code, Wrap(op, err))
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}
