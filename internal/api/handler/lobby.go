package handler

import (
	"context"
	"net/http"

	"github.com/mcoot/matchlobby/internal/api/apierr"
	"github.com/mcoot/matchlobby/internal/api/response"
	"github.com/mcoot/matchlobby/internal/model"
	"github.com/mcoot/matchlobby/internal/services/broker"
)

// Lobby is the read side of the broker used by the HTTP API
type Lobby interface {
	ListMatches(ctx context.Context) ([]model.ClientMatch, error)
	Stats(ctx context.Context) (broker.Snapshot, error)
}

// LobbyHandler handles match listing and health endpoints
type LobbyHandler struct {
	lobby Lobby
}

// NewLobbyHandler creates a new lobby handler
func NewLobbyHandler(lobby Lobby) *LobbyHandler {
	return &LobbyHandler{lobby: lobby}
}

// ListMatches handles GET /api/v1/matches
func (h *LobbyHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.lobby.ListMatches(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchListFromModel(matches))
}

// Health handles GET /api/v1/health
func (h *LobbyHandler) Health(w http.ResponseWriter, r *http.Request) {
	snap, err := h.lobby.Stats(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Health{
		Status:      "ok",
		Identities:  snap.Identities,
		Matches:     snap.Matches,
		OpenMatches: snap.OpenMatches,
		QueueDepth:  snap.QueueDepth,
	})
}
