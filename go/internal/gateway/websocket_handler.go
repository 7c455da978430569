package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for match and competition views
type WebSocketHandler struct {
	service *Service
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(s *Service) *WebSocketHandler {
	return &WebSocketHandler{service: s}
}

// HandleMatchConnection streams the detail view of one match
func (h *WebSocketHandler) HandleMatchConnection(w http.ResponseWriter, r *http.Request) {
	matchID := r.URL.Query().Get("match_id")
	if matchID == "" {
		http.Error(w, "match_id is required", http.StatusBadRequest)
		return
	}

	if err := h.service.connectionManager.UpgradeConnection(w, r, "match:"+matchID, h.service.mountMatch(matchID)); err != nil {
		// Upgrade has already written the HTTP error response.
		log.Error().
			Err(err).
			Str("match_id", matchID).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleCompetitionConnection streams the list view and bracket of one competition
func (h *WebSocketHandler) HandleCompetitionConnection(w http.ResponseWriter, r *http.Request) {
	competitionID := r.URL.Query().Get("competition_id")
	if competitionID == "" {
		http.Error(w, "competition_id is required", http.StatusBadRequest)
		return
	}

	if err := h.service.connectionManager.UpgradeConnection(w, r, "competition:"+competitionID, h.service.mountCompetition(competitionID)); err != nil {
		log.Error().
			Err(err).
			Str("competition_id", competitionID).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	stats := h.service.connectionManager.GetConnectionStats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		log.Error().Err(err).Msg("failed to write connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/match", h.HandleMatchConnection)
	mux.HandleFunc("/ws/competition", h.HandleCompetitionConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
