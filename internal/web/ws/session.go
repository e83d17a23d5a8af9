package ws

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/matchlobby/internal/dependencies/clock"
	"github.com/mcoot/matchlobby/internal/model"
	"github.com/mcoot/matchlobby/internal/protocol"
)

// Commander is the broker surface a session drives
type Commander interface {
	Connect(ctx context.Context, id model.IdentityID, name string, outbound model.Outbound) (model.ClientIdentity, error)
	Disconnect(ctx context.Context, id model.IdentityID) error
	CreateMatch(ctx context.Context, userID model.IdentityID) (model.MatchID, error)
	JoinMatch(ctx context.Context, matchID model.MatchID, userID model.IdentityID) (model.ClientMatch, error)
	ListMatches(ctx context.Context) ([]model.ClientMatch, error)
}

// Config holds per-connection settings
type Config struct {
	// PingInterval is the period between heartbeat checks and pings
	PingInterval time.Duration
	// Timeout is the longest gap since the last ping or pong before the
	// connection is considered dead
	Timeout time.Duration
	// WriteWait bounds a single frame write
	WriteWait time.Duration
	// CommandTimeout bounds each request to the broker
	CommandTimeout time.Duration
	MaxMessageSize int64
	// SendBuffer is the number of outbound frames that may queue before
	// notifications are dropped
	SendBuffer int
	// AllowedOrigins restricts browser origins; empty allows any
	AllowedOrigins []string
}

// DefaultConfig returns the default session configuration
func DefaultConfig() Config {
	return Config{
		PingInterval:   5 * time.Second,
		Timeout:        10 * time.Second,
		WriteWait:      10 * time.Second,
		CommandTimeout: 5 * time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     64,
	}
}

// State is the lifecycle stage of a session
type State int32

const (
	StateConnecting State = iota
	StateActive
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stop reasons, logged and used to pick the close code
const (
	reasonPeerClosed       = "peer_closed"
	reasonReadError        = "read_error"
	reasonWriteError       = "write_error"
	reasonHeartbeatTimeout = "heartbeat_timeout"
	reasonConnectFailed    = "connect_failed"
	reasonShutdown         = "shutdown"
)

// Session adapts one websocket connection to broker commands. The caller's
// goroutine reads frames in Serve; a second goroutine owns all data writes
// and the heartbeat.
type Session struct {
	id     model.IdentityID
	name   string
	conn   *websocket.Conn
	broker Commander
	clock  clock.Clock
	cfg    Config
	logger *slog.Logger

	send        chan []byte
	done        chan struct{}
	state       atomic.Int32
	lastSeen    atomic.Int64 // unix nanos of the last ping or pong
	connectedAt time.Time

	stopOnce       sync.Once
	disconnectOnce sync.Once
}

// Ensure Session implements model.Outbound
var _ model.Outbound = (*Session)(nil)

// NewSession wraps an upgraded connection. Nothing happens until Serve.
func NewSession(
	id model.IdentityID,
	name string,
	conn *websocket.Conn,
	broker Commander,
	clock clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Session {
	defaults := DefaultConfig()
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaults.PingInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = defaults.WriteWait
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = defaults.CommandTimeout
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaults.MaxMessageSize
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaults.SendBuffer
	}

	s := &Session{
		id:     id,
		name:   name,
		conn:   conn,
		broker: broker,
		clock:  clock,
		cfg:    cfg,
		logger: logger.With(
			slog.String("component", "session"),
			slog.String("identity_id", string(id))),
		send:        make(chan []byte, cfg.SendBuffer),
		done:        make(chan struct{}),
		connectedAt: clock.Now(),
	}
	s.state.Store(int32(StateConnecting))
	s.touch()
	return s
}

// ID returns the identity assigned to this connection
func (s *Session) ID() model.IdentityID {
	return s.id
}

// Name returns the generated display name
func (s *Session) Name() string {
	return s.name
}

// State returns the current lifecycle stage
func (s *Session) State() State {
	return State(s.state.Load())
}

// Done is closed once the session has stopped
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Serve registers the identity with the broker and runs the session until
// the connection ends. It returns after the session has stopped.
func (s *Session) Serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.conn.SetReadLimit(s.cfg.MaxMessageSize)
	s.conn.SetPongHandler(func(string) error {
		s.touch()
		return nil
	})
	s.conn.SetPingHandler(func(appData string) error {
		s.touch()
		err := s.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(s.cfg.WriteWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	connectCtx, connectCancel := context.WithTimeout(ctx, s.cfg.CommandTimeout)
	identity, err := s.broker.Connect(connectCtx, s.id, s.name, s)
	connectCancel()
	if err != nil {
		s.logger.Error("failed to connect identity", slog.String("error", err.Error()))
		s.stop(reasonConnectFailed)
		// The broker may still apply the Connect after our deadline
		s.disconnect()
		return
	}

	s.enqueue(protocol.LoginResponse(identity))
	if !s.state.CompareAndSwap(int32(StateConnecting), int32(StateActive)) {
		// Stopped while connecting
		s.disconnect()
		return
	}
	s.logger.Info("session active", slog.String("name", s.name))

	go s.writePump()
	s.readPump(ctx)
}

// Close stops the session from outside, e.g. on server shutdown
func (s *Session) Close() {
	s.stop(reasonShutdown)
}

// Deliver pushes a broker notification to the client without blocking
func (s *Session) Deliver(n model.Notification) bool {
	switch n.Type {
	case model.NotificationMatchJoined:
		payload, ok := n.Payload.(model.MatchJoinedPayload)
		if !ok {
			s.logger.Error("unexpected notification payload",
				slog.String("type", string(n.Type)))
			return false
		}
		return s.enqueue(protocol.MatchJoined{ID: n.MatchID, Player2: payload.Opponent.Name})
	default:
		s.logger.Warn("unhandled notification", slog.String("type", string(n.Type)))
		return false
	}
}

func (s *Session) touch() {
	s.lastSeen.Store(s.clock.Now().UnixNano())
}

// alive reports whether a ping or pong has been seen within the timeout
func (s *Session) alive() bool {
	lastSeen := time.Unix(0, s.lastSeen.Load())
	return s.clock.Since(lastSeen) <= s.cfg.Timeout
}

// enqueue hands a frame to the write pump. It never blocks.
func (s *Session) enqueue(msg protocol.ServerMessage) bool {
	raw, err := protocol.EncodeServerMessage(msg)
	if err != nil {
		s.logger.Error("failed to encode message",
			slog.String("type", string(msg.ServerType())),
			slog.String("error", err.Error()))
		return false
	}

	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.send <- raw:
		return true
	default:
		s.logger.Warn("message dropped - send buffer full",
			slog.String("type", string(msg.ServerType())))
		return false
	}
}

func (s *Session) readPump(ctx context.Context) {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			s.stop(s.classifyReadError(err))
			return
		}

		switch msgType {
		case websocket.TextMessage:
			s.handleFrame(ctx, data)
		case websocket.BinaryMessage:
			s.logger.Warn("unexpected binary frame ignored", slog.Int("size", len(data)))
		}
	}
}

func (s *Session) classifyReadError(err error) string {
	select {
	case <-s.done:
		// Already stopping; the read error is the side effect of closing
		return reasonShutdown
	default:
	}

	var closeErr *websocket.CloseError
	switch {
	case errors.As(err, &closeErr):
		s.logger.Info("peer closed connection",
			slog.Int("code", closeErr.Code),
			slog.String("text", closeErr.Text))
		return reasonPeerClosed
	case errors.Is(err, websocket.ErrReadLimit):
		s.logger.Warn("message exceeded maximum size",
			slog.Int64("max_message_size", s.cfg.MaxMessageSize))
		return reasonReadError
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed):
		s.logger.Info("connection closed", slog.String("error", err.Error()))
		return reasonPeerClosed
	default:
		s.logger.Warn("read error", slog.String("error", err.Error()))
		return reasonReadError
	}
}

func (s *Session) handleFrame(ctx context.Context, data []byte) {
	msg, err := protocol.DecodeClientMessage(data)
	if err != nil {
		s.logger.Warn("malformed frame", slog.String("error", err.Error()))
		s.enqueue(protocol.NewErrorResponse(err, ""))
		return
	}

	cmdCtx, cancel := context.WithTimeout(ctx, s.cfg.CommandTimeout)
	defer cancel()

	var reply protocol.ServerMessage
	switch m := msg.(type) {
	case protocol.CreateMatchRequest:
		var id model.MatchID
		if id, err = s.broker.CreateMatch(cmdCtx, s.id); err == nil {
			reply = protocol.CreateMatchResponse{ID: id}
		}
	case protocol.JoinMatchRequest:
		var match model.ClientMatch
		if match, err = s.broker.JoinMatch(cmdCtx, m.MatchID, s.id); err == nil {
			reply = protocol.JoinMatchResponse(match)
		}
	case protocol.ListMatchesRequest:
		var matches []model.ClientMatch
		if matches, err = s.broker.ListMatches(cmdCtx); err == nil {
			reply = protocol.ListMatchesResponse(matches)
		}
	default:
		return
	}

	if err != nil {
		if errors.Is(err, model.ErrUnavailable) || ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			// Broker communication failures are not reported to the client
			s.logger.Warn("broker request failed",
				slog.String("request", string(msg.ClientType())),
				slog.String("error", err.Error()))
			return
		}
		s.logger.Debug("request rejected",
			slog.String("request", string(msg.ClientType())),
			slog.String("error", err.Error()))
		reply = protocol.NewErrorResponse(err, msg.ClientType())
	}

	s.enqueue(reply)
}

func (s *Session) writePump() {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-s.send:
			if err := s.write(websocket.TextMessage, frame); err != nil {
				s.logger.Warn("write failed", slog.String("error", err.Error()))
				s.stop(reasonWriteError)
				return
			}
		case <-ticker.C:
			if !s.alive() {
				s.logger.Warn("heartbeat failed, disconnecting",
					slog.Duration("timeout", s.cfg.Timeout))
				s.stop(reasonHeartbeatTimeout)
				return
			}
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.logger.Warn("ping failed", slog.String("error", err.Error()))
				s.stop(reasonWriteError)
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Session) write(messageType int, data []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, data)
}

// stop moves the session to Stopped, closes the connection and tells the
// broker, all exactly once
func (s *Session) stop(reason string) {
	s.stopOnce.Do(func() {
		previous := State(s.state.Swap(int32(StateStopped)))
		close(s.done)

		code := websocket.CloseNormalClosure
		switch reason {
		case reasonHeartbeatTimeout, reasonShutdown:
			code = websocket.CloseGoingAway
		case reasonReadError, reasonWriteError, reasonConnectFailed:
			code = websocket.CloseInternalServerErr
		}
		if reason != reasonPeerClosed {
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(code, reason),
				time.Now().Add(s.cfg.WriteWait))
		}
		_ = s.conn.Close()

		if previous == StateActive {
			s.disconnect()
		}

		s.logger.Info("session stopped",
			slog.String("reason", reason),
			slog.String("previous_state", previous.String()),
			slog.Duration("connection_duration", s.clock.Since(s.connectedAt)))
	})
}

// disconnect tells the broker this identity is gone. Delivery is best effort.
func (s *Session) disconnect() {
	s.disconnectOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CommandTimeout)
		defer cancel()
		if err := s.broker.Disconnect(ctx, s.id); err != nil {
			s.logger.Warn("failed to send disconnect", slog.String("error", err.Error()))
		}
	})
}
