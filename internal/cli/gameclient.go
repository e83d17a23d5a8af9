package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/matchlobby/internal/protocol"
)

const (
	frameBuffer = 64
	closeWait   = time.Second
)

// ServerError is an ErrorResponse frame returned as an error
type ServerError struct {
	protocol.ErrorResponse
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// GameClient is a websocket session with the lobby. A single goroutine may
// consume frames; Send is safe to call concurrently.
type GameClient struct {
	conn     *websocket.Conn
	identity protocol.LoginResponse
	trace    io.Writer

	frames  chan protocol.ServerMessage
	closed  chan struct{}
	readErr error
	pending []protocol.ServerMessage

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// DialGame connects to url and waits for the login confirmation. Frames are
// echoed to trace when it is non-nil.
func DialGame(ctx context.Context, url string, trace io.Writer) (*GameClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", url, err)
	}

	c := &GameClient{
		conn:   conn,
		trace:  trace,
		frames: make(chan protocol.ServerMessage, frameBuffer),
		closed: make(chan struct{}),
	}
	go c.readLoop()

	msg, err := c.Next(ctx)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("waiting for login: %w", err)
	}
	login, ok := msg.(protocol.LoginResponse)
	if !ok {
		c.Close()
		return nil, fmt.Errorf("expected %s, got %s", protocol.TypeLoginResponse, msg.ServerType())
	}
	c.identity = login
	return c, nil
}

// Identity is the identity the server assigned to this connection
func (c *GameClient) Identity() protocol.LoginResponse {
	return c.identity
}

// Frames exposes the raw frame stream. It is closed when the connection
// ends; Err then reports why.
func (c *GameClient) Frames() <-chan protocol.ServerMessage {
	return c.frames
}

// Err returns the read error that ended the connection. Only meaningful
// after Frames is closed.
func (c *GameClient) Err() error {
	return c.readErr
}

// Next returns the next frame, including pushes held back by Request
func (c *GameClient) Next(ctx context.Context) (protocol.ServerMessage, error) {
	if len(c.pending) > 0 {
		msg := c.pending[0]
		c.pending = c.pending[1:]
		return msg, nil
	}
	select {
	case msg, ok := <-c.frames:
		if !ok {
			return nil, c.connectionError()
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Send writes one client message
func (c *GameClient) Send(msg protocol.ClientMessage) error {
	raw, err := protocol.EncodeClientMessage(msg)
	if err != nil {
		return err
	}
	c.tracef("> %s\n", raw)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, raw)
}

// Request sends msg and waits for its reply. MatchJoined pushes that arrive
// first are held for Next. An ErrorResponse reply is returned as *ServerError.
func (c *GameClient) Request(ctx context.Context, msg protocol.ClientMessage) (protocol.ServerMessage, error) {
	if err := c.Send(msg); err != nil {
		return nil, err
	}
	for {
		select {
		case reply, ok := <-c.frames:
			if !ok {
				return nil, c.connectionError()
			}
			switch r := reply.(type) {
			case protocol.MatchJoined:
				c.pending = append(c.pending, r)
			case protocol.ErrorResponse:
				return nil, &ServerError{r}
			default:
				return r, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close sends a normal close frame and releases the connection
func (c *GameClient) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWait))
		c.writeMu.Unlock()
		_ = c.conn.Close()
	})
}

func (c *GameClient) readLoop() {
	defer close(c.frames)
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			c.readErr = err
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		c.tracef("< %s\n", data)

		msg, err := protocol.DecodeServerMessage(data)
		if err != nil {
			c.tracef("! dropping frame: %v\n", err)
			continue
		}
		select {
		case c.frames <- msg:
		case <-c.closed:
			return
		}
	}
}

func (c *GameClient) connectionError() error {
	if c.readErr == nil || websocket.IsCloseError(c.readErr, websocket.CloseNormalClosure) {
		return errors.New("connection closed")
	}
	return fmt.Errorf("connection lost: %w", c.readErr)
}

func (c *GameClient) tracef(format string, args ...any) {
	if c.trace != nil {
		_, _ = fmt.Fprintf(c.trace, format, args...)
	}
}
