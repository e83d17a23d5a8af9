package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/matchlobby/internal/api/apierr"
	"github.com/mcoot/matchlobby/internal/api/request"
	"github.com/mcoot/matchlobby/internal/api/response"
	"github.com/mcoot/matchlobby/internal/model"
)

// Journal is the pairing history read by the HTTP API
type Journal interface {
	List(ctx context.Context, limit int) ([]*model.Pairing, error)
	Get(ctx context.Context, id model.MatchID) (*model.Pairing, error)
}

// PairingHandler handles pairing journal endpoints
type PairingHandler struct {
	journal Journal
}

// NewPairingHandler creates a new pairing handler
func NewPairingHandler(journal Journal) *PairingHandler {
	return &PairingHandler{journal: journal}
}

// List handles GET /api/v1/pairings
func (h *PairingHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := request.ParseLimit(r)
	if err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError(err.Error()))
		return
	}

	pairings, err := h.journal.List(r.Context(), limit)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PairingListFromModel(pairings))
}

// Get handles GET /api/v1/pairings/{match_id}
func (h *PairingHandler) Get(w http.ResponseWriter, r *http.Request) {
	matchID := model.MatchID(mux.Vars(r)["match_id"])

	pairing, err := h.journal.Get(r.Context(), matchID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PairingFromModel(pairing))
}
