package api

import (
	"context"
	"net/http"
	"strings"
)

// maxBatchNames bounds how many names one /match request may resolve.
const maxBatchNames = 100

// MatchDependencies defines the interface for single-name resolution.
type MatchDependencies interface {
	Match(ctx context.Context, name string) Resolution
}

// MatchHandler handles name lookups.
type MatchHandler struct {
	deps MatchDependencies
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps MatchDependencies) *MatchHandler {
	return &MatchHandler{deps: deps}
}

// HandleMatch handles GET /match?name=... requests. A single name returns one
// resolution; a repeated name parameter returns a list in request order.
func (h *MatchHandler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	names := r.URL.Query()["name"]
	switch {
	case len(names) == 0:
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	case len(names) > maxBatchNames:
		writeError(w, http.StatusBadRequest, "too_many_names", ErrBadRequest)
		return
	}
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			writeError(w, http.StatusBadRequest, "empty_name", ErrBadRequest)
			return
		}
	}

	if len(names) == 1 {
		writeJSON(w, http.StatusOK, h.deps.Match(r.Context(), names[0]))
		return
	}
	out := make([]Resolution, len(names))
	for i, n := range names {
		out[i] = h.deps.Match(r.Context(), n)
	}
	writeJSON(w, http.StatusOK, out)
}
