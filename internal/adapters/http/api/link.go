package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/chow-chow/rubik/internal/app"
)

// LinkDependencies defines the interface for running and reading passes.
type LinkDependencies interface {
	Link(ctx context.Context) (Report, error)
	LastReport() (Report, bool)
}

// LinkHandler handles linkage pass requests.
type LinkHandler struct {
	deps LinkDependencies
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(deps LinkDependencies) *LinkHandler {
	return &LinkHandler{deps: deps}
}

// HandleLink runs a pass on POST and returns the last report on GET.
func (h *LinkHandler) HandleLink(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		report, err := h.deps.Link(r.Context())
		if err != nil {
			if errors.Is(err, service.ErrPassInProgress) {
				writeError(w, http.StatusConflict, "pass_in_progress", err)
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	case http.MethodGet:
		report, ok := h.deps.LastReport()
		if !ok {
			writeError(w, http.StatusNotFound, "not_found", ErrNoReport)
			return
		}
		writeJSON(w, http.StatusOK, report)
	default:
		http.NotFound(w, r)
	}
}
