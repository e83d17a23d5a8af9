package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/matchlobby/internal/web/middleware"
)

// GamePath is where clients open their persistent connection
const GamePath = "/game/"

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger *slog.Logger
	// Sessions upgrades game connections, normally a *ws.Handler
	Sessions http.Handler
}

// NewRouter creates the router for the game endpoint
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	r.Handle(GamePath, cfg.Sessions).Methods(http.MethodGet)
	r.Handle("/game", cfg.Sessions).Methods(http.MethodGet)

	return r
}
