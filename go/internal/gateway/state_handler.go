package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/matchlive/go/internal/matchclock"
	"github.com/mcdev12/matchlive/go/internal/models"
	"github.com/mcdev12/matchlive/go/internal/snapshot"
	"github.com/mcdev12/matchlive/go/internal/view"
)

// SnapshotProvider fetches every snapshot kind the gateway serves.
type SnapshotProvider interface {
	view.Loader
	FetchTeam(ctx context.Context, id string) (*models.TeamInfo, error)
}

// MatchStateResponse is a one-off match snapshot with the clock estimated at request time
type MatchStateResponse struct {
	Match models.MatchSnapshot `json:"match"`
	Clock string               `json:"clock,omitempty"`
}

// StateHandler serves snapshots over plain HTTP for clients that do not need live updates
type StateHandler struct {
	provider SnapshotProvider
	clock    clockwork.Clock
}

// NewStateHandler creates a new state handler
func NewStateHandler(provider SnapshotProvider, clock clockwork.Clock) *StateHandler {
	return &StateHandler{provider: provider, clock: clock}
}

// HandleGetMatch handles GET /api/matches/{id}
func (h *StateHandler) HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	match, err := h.provider.FetchMatch(r.Context(), id)
	if err != nil {
		h.writeError(w, "match", id, err)
		return
	}

	resp := MatchStateResponse{Match: *match}
	if match.Status.IsRunning() {
		resp.Clock = matchclock.Label(matchclock.Estimate(match.Status, match.StatusLastModified, h.clock.Now()))
	}
	writeJSON(w, resp)
}

// HandleGetTeam handles GET /api/teams/{id}
func (h *StateHandler) HandleGetTeam(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	team, err := h.provider.FetchTeam(r.Context(), id)
	if err != nil {
		h.writeError(w, "team", id, err)
		return
	}
	writeJSON(w, team)
}

// HandleGetCompetition handles GET /api/competitions/{id}
func (h *StateHandler) HandleGetCompetition(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	competition, err := h.provider.FetchCompetition(r.Context(), id)
	if err != nil {
		h.writeError(w, "competition", id, err)
		return
	}
	writeJSON(w, competition)
}

// RegisterStateRoutes registers the snapshot routes with an HTTP mux
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/matches/{id}", h.HandleGetMatch)
	mux.HandleFunc("GET /api/teams/{id}", h.HandleGetTeam)
	mux.HandleFunc("GET /api/competitions/{id}", h.HandleGetCompetition)
}

func (h *StateHandler) writeError(w http.ResponseWriter, kind, id string, err error) {
	if errors.Is(err, snapshot.ErrNotFound) {
		http.Error(w, kind+" not found", http.StatusNotFound)
		return
	}
	log.Error().Err(err).Str("kind", kind).Str("id", id).Msg("failed to fetch snapshot")
	http.Error(w, "failed to fetch "+kind, http.StatusBadGateway)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
