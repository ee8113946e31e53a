package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/pilot2048/internal/autoplay"
	"github.com/vovakirdan/pilot2048/internal/engine"
)

// DefaultRequestTimeout bounds a request when the context has no deadline.
const DefaultRequestTimeout = 30 * time.Second

// ErrClosed is returned by requests on a closed Client.
var ErrClosed = errors.New("remote: client closed")

// ServerError is an error frame sent back by the server.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "remote: server error: " + e.Message
}

// Client drives one game on a remote server. Requests are serialized, each
// waits for the matching reply. A request that fails on the wire leaves the
// connection unusable, so the next request redials and reattaches to the
// same game.
type Client struct {
	mu      sync.Mutex
	url     string
	conn    *websocket.Conn
	broken  bool
	closed  bool
	state   StatePayload
	timeout time.Duration
	logger  *log.Logger
}

var _ autoplay.Provider = (*Client)(nil)

// Dial connects to a game server, which deals a new game, and fetches its
// initial state.
func Dial(ctx context.Context, rawURL string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: dial %s: %w", rawURL, err)
	}

	c := &Client{
		url:     rawURL,
		conn:    conn,
		timeout: DefaultRequestTimeout,
		logger:  log.New(io.Discard),
	}
	if _, err := c.roundTrip(ctx, TypeState, nil); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// resumeURL is base with the game query parameter set to id.
func resumeURL(base, id string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("game", id)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// reattach replaces a broken connection with one attached to the same game.
// Callers hold c.mu.
func (c *Client) reattach(ctx context.Context) error {
	target, err := resumeURL(c.url, c.state.GameID)
	if err != nil {
		return fmt.Errorf("remote: resume url: %w", err)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("remote: reattach to game %s: %w", c.state.GameID, err)
	}
	c.conn, c.broken = conn, false
	c.logger.Info("reattached", "game", c.state.GameID)
	return nil
}

// fail marks the connection unusable after a transport error.
func (c *Client) fail(ctx context.Context, op string, err error) error {
	c.broken = true
	_ = c.conn.Close()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("remote: %s: %w", op, err)
}

// roundTrip sends one request and decodes the state reply.
func (c *Client) roundTrip(ctx context.Context, typ string, payload any) (StatePayload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return StatePayload{}, err
	}
	if c.closed {
		return StatePayload{}, ErrClosed
	}
	if c.broken {
		if err := c.reattach(ctx); err != nil {
			return StatePayload{}, err
		}
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	_ = c.conn.SetWriteDeadline(deadline)
	_ = c.conn.SetReadDeadline(deadline)

	// Unblock the pending read if ctx is cancelled mid-request.
	conn := c.conn
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := c.conn.WriteJSON(newEnvelope(typ, payload)); err != nil {
		return StatePayload{}, c.fail(ctx, "send "+typ, err)
	}

	var reply Envelope
	if err := c.conn.ReadJSON(&reply); err != nil {
		return StatePayload{}, c.fail(ctx, "read reply", err)
	}

	switch reply.Type {
	case TypeState:
		var st StatePayload
		if err := json.Unmarshal(reply.Payload, &st); err != nil {
			return StatePayload{}, fmt.Errorf("remote: decode state: %w", err)
		}
		c.state = st
		return st, nil
	case TypeError:
		var ep ErrorPayload
		if err := json.Unmarshal(reply.Payload, &ep); err != nil {
			return StatePayload{}, fmt.Errorf("remote: decode error: %w", err)
		}
		return StatePayload{}, &ServerError{Message: ep.Message}
	default:
		return StatePayload{}, fmt.Errorf("remote: unexpected reply type %q", reply.Type)
	}
}

// ID returns the id of the game last reported by the server.
func (c *Client) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.GameID
}

// FetchBoard asks the server for the current board.
func (c *Client) FetchBoard(ctx context.Context) (engine.Board, error) {
	st, err := c.roundTrip(ctx, TypeState, nil)
	if err != nil {
		return engine.Board{}, err
	}
	return engine.FromRows(st.Board)
}

// Submit sends a move and waits for the server to apply it.
func (c *Client) Submit(ctx context.Context, dir engine.Direction) error {
	if !dir.Valid() {
		return fmt.Errorf("remote: submit %d: %w", int(dir), engine.ErrInvalidDirection)
	}
	_, err := c.roundTrip(ctx, TypeMove, MovePayload{Direction: &dir})
	return err
}

// GameOver asks the server whether the game has ended.
func (c *Client) GameOver(ctx context.Context) (bool, error) {
	st, err := c.roundTrip(ctx, TypeState, nil)
	if err != nil {
		return false, err
	}
	return st.Over, nil
}

// Score asks the server for the current score.
func (c *Client) Score(ctx context.Context) (int, error) {
	st, err := c.roundTrip(ctx, TypeState, nil)
	if err != nil {
		return 0, err
	}
	return st.Score, nil
}

// Close says goodbye and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.broken {
		return nil
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}

// Source dials a fresh connection, and so a fresh game, for every NewGame.
type Source struct {
	URL    string
	Logger *log.Logger
}

var _ autoplay.Source = (*Source)(nil)

// NewSource returns a source for the server at url. A nil logger discards
// output.
func NewSource(rawURL string, logger *log.Logger) *Source {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Source{URL: rawURL, Logger: logger}
}

// Name identifies the source in results.
func (s *Source) Name() string {
	return "remote"
}

// NewGame connects to the server, which deals a new game per connection.
func (s *Source) NewGame(ctx context.Context) (autoplay.Provider, error) {
	c, err := Dial(ctx, s.URL)
	if err != nil {
		return nil, err
	}
	c.logger = s.Logger
	s.Logger.Debug("connected", "url", s.URL, "game", c.ID())
	return c, nil
}
