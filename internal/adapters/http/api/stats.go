package api

import (
	"net/http"

	"github.com/chow-chow/rubik/internal/domain/types"
)

// Stats mirrors the monitoring snapshot served on /stats.
type Stats = types.Stats

// StatsProvider reports the linker's running state.
type StatsProvider interface {
	GetStats() Stats
}

// StatsHandler serves the monitoring snapshot.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats handles GET /stats. The last_pass object is omitted until a
// pass has run, and match_rate until a pass has scanned a reference.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.provider.GetStats())
}
