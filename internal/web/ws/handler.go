package ws

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mcoot/matchlobby/internal/dependencies/clock"
	"github.com/mcoot/matchlobby/internal/dependencies/names"
	"github.com/mcoot/matchlobby/internal/dependencies/random"
	"github.com/mcoot/matchlobby/internal/model"
)

// Handler upgrades requests to websocket sessions
type Handler struct {
	cfg      Config
	broker   Commander
	clock    clock.Clock
	random   random.Random
	names    names.Generator
	logger   *slog.Logger
	upgrader websocket.Upgrader
	origins  map[string]bool

	mu       sync.Mutex
	sessions map[*Session]struct{}
}

// NewHandler creates a Handler. Each upgraded connection gets a fresh
// identity id from random and a display name from names.
func NewHandler(
	cfg Config,
	broker Commander,
	clock clock.Clock,
	random random.Random,
	names names.Generator,
	logger *slog.Logger,
) *Handler {
	h := &Handler{
		cfg:      cfg,
		broker:   broker,
		clock:    clock,
		random:   random,
		names:    names,
		logger:   logger.With(slog.String("component", "ws")),
		origins:  make(map[string]bool),
		sessions: make(map[*Session]struct{}),
	}
	for _, origin := range cfg.AllowedOrigins {
		if normalized, ok := normalizeOrigin(origin); ok {
			h.origins[normalized] = true
		} else {
			h.logger.Warn("ignoring invalid allowed origin", slog.String("origin", origin))
		}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// ServeHTTP upgrades the connection and runs a session until it ends
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.Warn("websocket upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()))
		return
	}

	session := NewSession(
		model.IdentityID(h.random.UUID()),
		h.names.Next(),
		conn,
		h.broker,
		h.clock,
		h.cfg,
		h.logger,
	)
	if !h.track(session) {
		session.Close()
		return
	}
	defer h.untrack(session)

	h.logger.Debug("websocket connection accepted",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("identity_id", string(session.ID())),
		slog.String("name", session.Name()))

	// Hijacked connections outlive the request context
	session.Serve(context.WithoutCancel(r.Context()))
}

func (h *Handler) track(s *Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions == nil {
		return false
	}
	h.sessions[s] = struct{}{}
	return true
}

func (h *Handler) untrack(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s)
}

// ActiveSessions returns the number of sessions currently being served
func (h *Handler) ActiveSessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Shutdown closes every live session and refuses new ones
func (h *Handler) Shutdown() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = nil
	h.mu.Unlock()

	for s := range sessions {
		s.Close()
	}
	h.logger.Info("websocket sessions closed", slog.Int("count", len(sessions)))
}

// checkOrigin allows requests without an Origin header (non-browser clients)
// and browser requests from an allowed origin
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.origins) == 0 || h.origins["*"] {
		return true
	}
	normalized, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	return h.origins[normalized]
}

func normalizeOrigin(origin string) (string, bool) {
	origin = strings.TrimSpace(origin)
	if origin == "*" {
		return origin, true
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
