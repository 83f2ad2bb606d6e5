// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/smarthire/internal/domain/types"
)

// StatsProvider defines the interface for getting dashboard statistics.
type StatsProvider interface {
	Stats(ctx context.Context) (types.Stats, error)
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	provider StatsProvider
	rs       *responder
}

// newStatsHandler creates a new stats handler.
func newStatsHandler(provider StatsProvider, rs *responder) *StatsHandler {
	return &StatsHandler{provider: provider, rs: rs}
}

// HandleStats handles GET /api/stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.stats"
	stats, err := h.provider.Stats(r.Context())
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
