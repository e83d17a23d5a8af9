package web_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/matchlobby/internal/factory"
	"github.com/mcoot/matchlobby/internal/protocol"
	"github.com/mcoot/matchlobby/internal/testutil"
	"github.com/mcoot/matchlobby/internal/web"
)

// recordingSessions stands in for the websocket handler
type recordingSessions struct {
	paths []string
	panic bool
}

func (h *recordingSessions) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.panic {
		panic("session exploded")
	}
	h.paths = append(h.paths, r.URL.Path)
	w.WriteHeader(http.StatusNoContent)
}

func newRouter(sessions http.Handler) http.Handler {
	return web.NewRouter(web.RouterConfig{
		Logger:   testutil.NopLogger(),
		Sessions: sessions,
	})
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func TestGamePathsRouteToSessions(t *testing.T) {
	sessions := &recordingSessions{}
	router := newRouter(sessions)

	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/game/").Code)
	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/game").Code)
	assert.Equal(t, []string{"/game/", "/game"}, sessions.paths)
}

func TestGamePathRejectsOtherMethods(t *testing.T) {
	sessions := &recordingSessions{}
	router := newRouter(sessions)

	assert.Equal(t, http.StatusMethodNotAllowed, serve(router, http.MethodPost, "/game/").Code)
	assert.Empty(t, sessions.paths)
}

func TestUnknownPathNotFound(t *testing.T) {
	router := newRouter(&recordingSessions{})

	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/lobby").Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/game/extra").Code)
}

func TestSessionPanicRecovered(t *testing.T) {
	router := newRouter(&recordingSessions{panic: true})

	rr := serve(router, http.MethodGet, "/game/")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

// The logging middleware wraps the writer; upgrades must still hijack it.
func TestWebsocketUpgradeThroughMiddleware(t *testing.T) {
	app := factory.NewTestApp()
	app.MockRandom.QueueUUID("player-1")
	server := httptest.NewServer(newRouter(app.Sessions))
	t.Cleanup(func() {
		app.Stop()
		server.Close()
	})

	url := "ws" + strings.TrimPrefix(server.URL, "http") + web.GamePath
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	msg, err := protocol.DecodeServerMessage(data)
	require.NoError(t, err)
	login, ok := msg.(protocol.LoginResponse)
	require.True(t, ok)
	assert.Equal(t, "player-1", string(login.ID))
	assert.NotEmpty(t, login.Name)
}
