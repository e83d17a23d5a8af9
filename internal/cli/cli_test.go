package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/matchlobby/internal/api/response"
	"github.com/mcoot/matchlobby/internal/factory"
	"github.com/mcoot/matchlobby/internal/model"
	"github.com/mcoot/matchlobby/internal/protocol"
)

// syncBuffer is a bytes.Buffer safe to read while another goroutine writes
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestGameURL(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"http://localhost:8000", "ws://localhost:8000/game/"},
		{"http://localhost:8000/", "ws://localhost:8000/game/"},
		{"https://lobby.example.com", "wss://lobby.example.com/game/"},
		{"https://lobby.example.com/prefix", "wss://lobby.example.com/prefix/game/"},
		{"ws://127.0.0.1:9000", "ws://127.0.0.1:9000/game/"},
	}
	for _, tt := range tests {
		t.Run(tt.server, func(t *testing.T) {
			cfg := &Config{ServerURL: tt.server, Output: "text"}
			got, err := cfg.GameURL()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, (&Config{ServerURL: "http://localhost:8000", Output: "json"}).Validate())
	assert.Error(t, (&Config{ServerURL: "http://localhost:8000", Output: "yaml"}).Validate())
	assert.Error(t, (&Config{ServerURL: "ftp://localhost", Output: "text"}).Validate())
}

func TestDefaultConfigReadsEnv(t *testing.T) {
	t.Setenv("LOBBY_SERVER", "http://lobby:1234")
	assert.Equal(t, "http://lobby:1234", DefaultConfig().ServerURL)

	t.Setenv("LOBBY_SERVER", "")
	assert.Equal(t, "http://localhost:8000", DefaultConfig().ServerURL)
}

func TestOutputText(t *testing.T) {
	p2 := "bob"
	paired := time.Date(2024, 1, 1, 12, 0, 30, 0, time.UTC)
	tests := []struct {
		name string
		data any
		want string
	}{
		{
			name: "empty match list",
			data: response.MatchList{},
			want: "No open matches\n",
		},
		{
			name: "match list",
			data: response.MatchList{Matches: []response.Match{{ID: "m1", Player1: "alice"}}},
			want: "Open matches (1):\n  m1  created by alice\n",
		},
		{
			name: "websocket listing",
			data: protocol.ListMatchesResponse{{ID: "m1", Player1: "alice"}},
			want: "Open matches (1):\n  m1  created by alice\n",
		},
		{
			name: "login",
			data: protocol.LoginResponse{ID: "u1", Name: "alice"},
			want: "Logged in as alice (u1)\n",
		},
		{
			name: "created",
			data: protocol.CreateMatchResponse{ID: "m1"},
			want: "Created match m1\n",
		},
		{
			name: "joined",
			data: protocol.JoinMatchResponse{ID: "m1", Player1: "alice", Player2: &p2},
			want: "Joined match m1: alice vs bob\n",
		},
		{
			name: "pushed join",
			data: protocol.MatchJoined{ID: "m1", Player2: "bob"},
			want: "bob joined match m1\n",
		},
		{
			name: "error frame",
			data: protocol.ErrorResponse{Code: protocol.CodeMatchFull, Message: "Match already has two players"},
			want: "Error: Match already has two players (MATCH_FULL)\n",
		},
		{
			name: "pairings",
			data: response.PairingList{Pairings: []response.Pairing{{
				MatchID:  "m1",
				Player1:  response.Player{ID: "u1", Name: "alice"},
				Player2:  response.Player{ID: "u2", Name: "bob"},
				PairedAt: paired,
			}}},
			want: "2024-01-01T12:00:30Z  m1  alice vs bob\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			NewOutput("text", &out, io.Discard).Print(tt.data)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestOutputJSONPrintsServerFramesAsEnvelopes(t *testing.T) {
	var out bytes.Buffer
	NewOutput("json", &out, io.Discard).Print(protocol.CreateMatchResponse{ID: "m1"})
	assert.JSONEq(t, `{"type":"CreateMatchResponse","data":{"id":"m1"}}`, out.String())
}

func TestOutputJSONError(t *testing.T) {
	var errOut bytes.Buffer
	NewOutput("json", io.Discard, &errOut).PrintError(errors.New("boom"))
	assert.JSONEq(t, `{"error":{"message":"boom"}}`, errOut.String())
}

type GameClientSuite struct {
	suite.Suite
	app    *factory.TestApp
	server *httptest.Server
	url    string
	ctx    context.Context
}

func TestGameClientSuite(t *testing.T) {
	suite.Run(t, new(GameClientSuite))
}

func (s *GameClientSuite) SetupTest() {
	s.app = factory.NewTestApp()
	s.server = httptest.NewServer(s.app.Handler())
	cfg := &Config{ServerURL: s.server.URL}
	url, err := cfg.GameURL()
	s.Require().NoError(err)
	s.url = url
	var cancel context.CancelFunc
	s.ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	s.T().Cleanup(cancel)
}

func (s *GameClientSuite) TearDownTest() {
	s.app.Stop()
	s.server.Close()
}

func (s *GameClientSuite) dial() *GameClient {
	gc, err := DialGame(s.ctx, s.url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(gc.Close)
	return gc
}

func (s *GameClientSuite) TestDialReceivesIdentity() {
	s.app.MockRandom.QueueUUID("u1")

	gc := s.dial()
	s.Equal(model.IdentityID("u1"), gc.Identity().ID)
	s.NotEmpty(gc.Identity().Name)
}

func (s *GameClientSuite) TestDialFailsForBadURL() {
	_, err := DialGame(s.ctx, s.url+"nope", nil)
	s.Error(err)
}

func (s *GameClientSuite) TestRequestReturnsReply() {
	s.app.MockRandom.QueueUUID("u1", "m1")
	gc := s.dial()

	reply, err := gc.Request(s.ctx, protocol.CreateMatchRequest{})
	s.Require().NoError(err)
	s.Equal(protocol.CreateMatchResponse{ID: "m1"}, reply)
}

func (s *GameClientSuite) TestRequestReturnsServerError() {
	s.app.MockRandom.QueueUUID("u1", "m1")
	gc := s.dial()

	_, err := gc.Request(s.ctx, protocol.CreateMatchRequest{})
	s.Require().NoError(err)

	_, err = gc.Request(s.ctx, protocol.JoinMatchRequest{MatchID: "m1"})
	var serverErr *ServerError
	s.Require().ErrorAs(err, &serverErr)
	s.Equal(protocol.CodeOwnMatch, serverErr.Code)
}

func (s *GameClientSuite) TestRequestHoldsPushesForNext() {
	s.app.MockRandom.QueueUUID("alice", "bob", "m1")
	alice := s.dial()
	bob := s.dial()

	_, err := alice.Request(s.ctx, protocol.CreateMatchRequest{})
	s.Require().NoError(err)
	_, err = bob.Request(s.ctx, protocol.JoinMatchRequest{MatchID: "m1"})
	s.Require().NoError(err)

	// The push was queued for alice before her listing reply
	reply, err := alice.Request(s.ctx, protocol.ListMatchesRequest{})
	s.Require().NoError(err)
	s.Equal(protocol.ListMatchesResponse{}, reply)

	next, err := alice.Next(s.ctx)
	s.Require().NoError(err)
	s.Equal(protocol.MatchJoined{ID: "m1", Player2: bob.Identity().Name}, next)
}

func (s *GameClientSuite) TestNextFailsAfterServerShutdown() {
	gc := s.dial()
	s.app.Sessions.Shutdown()

	_, err := gc.Next(s.ctx)
	s.Error(err)
}

func (s *GameClientSuite) TestPlayLoop() {
	s.app.MockRandom.QueueUUID("u1", "m1")
	gc := s.dial()

	in, feed := io.Pipe()
	s.T().Cleanup(func() { _ = feed.Close() })
	out := &syncBuffer{}
	errOut := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- runPlay(s.ctx, gc, in, NewOutput("text", out, errOut)) }()

	write := func(line string) {
		_, err := io.WriteString(feed, line+"\n")
		s.Require().NoError(err)
	}

	write("create")
	s.Eventually(func() bool { return strings.Contains(out.String(), "Created match m1") },
		2*time.Second, 10*time.Millisecond)

	write("list")
	s.Eventually(func() bool { return strings.Contains(out.String(), "m1  created by") },
		2*time.Second, 10*time.Millisecond)

	write("join m1")
	s.Eventually(func() bool { return strings.Contains(out.String(), "Error: Cannot join your own match (OWN_MATCH)") },
		2*time.Second, 10*time.Millisecond)

	write("join")
	write("dance")
	s.Eventually(func() bool {
		e := errOut.String()
		return strings.Contains(e, "usage: join <id>") && strings.Contains(e, `unknown command "dance"`)
	}, 2*time.Second, 10*time.Millisecond)

	write("quit")
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(2 * time.Second):
		s.Fail("play loop did not exit")
	}
	s.Contains(out.String(), "Logged in as")
}

func (s *GameClientSuite) TestPlayLoopEndsWhenConnectionCloses() {
	gc := s.dial()
	in, feed := io.Pipe()
	s.T().Cleanup(func() { _ = feed.Close() })

	done := make(chan error, 1)
	go func() { done <- runPlay(s.ctx, gc, in, NewOutput("text", io.Discard, io.Discard)) }()

	s.app.Sessions.Shutdown()
	select {
	case err := <-done:
		s.Error(err)
	case <-time.After(2 * time.Second):
		s.Fail("play loop did not exit")
	}
}
