package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/matchlobby/internal/api/apierr"
	"github.com/mcoot/matchlobby/internal/api/handler"
	"github.com/mcoot/matchlobby/internal/api/middleware"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger  *slog.Logger
	Lobby   handler.Lobby
	Journal handler.Journal
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	lobbyHandler := handler.NewLobbyHandler(cfg.Lobby)
	pairingHandler := handler.NewPairingHandler(cfg.Journal)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", lobbyHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/matches", lobbyHandler.ListMatches).Methods(http.MethodGet)
	api.HandleFunc("/pairings", pairingHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/pairings/{match_id}", pairingHandler.Get).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewMethodNotAllowedError())
	})

	return r
}
