package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/pilot2048/internal/autoplay"
	"github.com/vovakirdan/pilot2048/internal/engine"
)

func startServer(t *testing.T) string {
	t.Helper()
	_, url := startServerWith(t, DefaultServerConfig())
	return url
}

func startServerWith(t *testing.T, cfg ServerConfig) (*Server, string) {
	t.Helper()

	cfg.Seed = 3
	srv := NewServer(cfg, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

// moveOnce submits directions until one changes the board.
func moveOnce(t *testing.T, c *Client) {
	t.Helper()
	ctx := context.Background()
	for _, dir := range engine.Directions {
		if err := c.Submit(ctx, dir); err != nil {
			t.Fatalf("Submit(%s) failed: %v", dir, err)
		}
		if c.state.Moves > 0 {
			return
		}
	}
	t.Fatal("no direction changed a two-tile board")
}

func TestClientRoundTrip(t *testing.T) {
	url := startServer(t)
	ctx := context.Background()

	c, err := Dial(ctx, url)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer c.Close()

	if c.ID() == "" {
		t.Error("ID() should be set after dial")
	}

	board, err := c.FetchBoard(ctx)
	if err != nil {
		t.Fatalf("FetchBoard() failed: %v", err)
	}
	if n := engine.Size*engine.Size - board.EmptyCount(); n != 2 {
		t.Errorf("new game has %d tiles, want 2", n)
	}

	moveOnce(t, c)

	over, err := c.GameOver(ctx)
	if err != nil || over {
		t.Errorf("GameOver() = %v, %v; want false, nil", over, err)
	}
	if _, err := c.Score(ctx); err != nil {
		t.Errorf("Score() failed: %v", err)
	}

	if err := c.Submit(ctx, engine.Direction(7)); !errors.Is(err, engine.ErrInvalidDirection) {
		t.Errorf("Submit(bad direction) error = %v, want ErrInvalidDirection", err)
	}
}

func TestAutopilotOverWebsocket(t *testing.T) {
	url := startServer(t)

	sel := engine.NewSelector(rand.New(rand.NewSource(5)))
	player := autoplay.NewPlayer(sel, autoplay.Config{MaxMoves: 100000}, nil)
	sess := autoplay.NewSession(player, NewSource(url, nil), nil, autoplay.SessionConfig{MaxGames: 1}, nil)

	sum, err := sess.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	res := sum.Games[0]
	if res.Reason != autoplay.ReasonGameOver {
		t.Errorf("Reason = %s, want %s", res.Reason, autoplay.ReasonGameOver)
	}
	if res.Source != "remote" || res.Moves == 0 {
		t.Errorf("Result = %+v", res)
	}
}

func TestServerRejectsBadRequests(t *testing.T) {
	url := startServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer conn.Close()

	send := func(raw string) Envelope {
		t.Helper()
		if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
			t.Fatalf("write %q: %v", raw, err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("read reply to %q: %v", raw, err)
		}
		return env
	}

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"malformed", "not json", TypeError},
		{"unknown type", `{"type":"jump"}`, TypeError},
		{"bad direction", `{"type":"move","payload":{"direction":"north"}}`, TypeError},
		{"missing payload", `{"type":"move"}`, TypeError},
		{"missing direction", `{"type":"move","payload":{}}`, TypeError},
		{"null direction", `{"type":"move","payload":{"direction":null}}`, TypeError},
		// The connection survives the errors above.
		{"state", `{"type":"state"}`, TypeState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := send(tt.raw)
			if env.Type == TypeState {
				var st StatePayload
				if err := json.Unmarshal(env.Payload, &st); err != nil || st.Moves != 0 {
					t.Errorf("state after rejected requests = %s, want no moves played", env.Payload)
				}
			}
			if env.Type != tt.want {
				t.Fatalf("reply type = %s, want %s", env.Type, tt.want)
			}
			if env.Type == TypeError {
				var ep ErrorPayload
				if err := json.Unmarshal(env.Payload, &ep); err != nil || ep.Message == "" {
					t.Errorf("error payload = %s, want a message", env.Payload)
				}
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	ts := httptest.NewServer(NewServer(DefaultServerConfig(), nil).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("GET /healthz = %d %q, want 200 ok", resp.StatusCode, body)
	}
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := Dial(ctx, "ws://127.0.0.1:1/ws"); err == nil {
		t.Error("Dial() to a closed port should fail")
	}
}

func TestNewGameRequest(t *testing.T) {
	srv, url := startServerWith(t, DefaultServerConfig())

	c, err := Dial(context.Background(), url)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer c.Close()
	moveOnce(t, c)
	first := c.ID()

	st, err := c.roundTrip(context.Background(), TypeNew, nil)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	if st.GameID == first || st.Moves != 0 || st.Score != 0 {
		t.Errorf("state after new = %+v, want a fresh game", st)
	}
	if srv.lookup(first) != nil || srv.lookup(st.GameID) == nil {
		t.Error("new game should replace the old one in the registry")
	}
}

func TestClientReattachesAfterTimeout(t *testing.T) {
	srv, url := startServerWith(t, DefaultServerConfig())
	ctx := context.Background()

	c, err := Dial(ctx, url)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer c.Close()
	moveOnce(t, c)
	id, moves := c.ID(), c.state.Moves

	// Hold the game so the next reply stalls past the client timeout.
	h := srv.lookup(id)
	h.mu.Lock()
	released := make(chan struct{})
	time.AfterFunc(300*time.Millisecond, func() {
		h.mu.Unlock()
		close(released)
	})

	c.timeout = 100 * time.Millisecond
	if _, err := c.FetchBoard(ctx); err == nil {
		t.Fatal("FetchBoard() should time out while the server stalls")
	}
	<-released

	c.timeout = 5 * time.Second
	if _, err := c.FetchBoard(ctx); err != nil {
		t.Fatalf("FetchBoard() after the stall failed: %v", err)
	}
	if c.ID() != id || c.state.Moves != moves {
		t.Errorf("after reattach: game %s with %d moves, want %s with %d", c.ID(), c.state.Moves, id, moves)
	}
	moveOnce(t, c)
}

func TestAutopilotRetriesThroughStall(t *testing.T) {
	srv, url := startServerWith(t, DefaultServerConfig())
	ctx := context.Background()

	c, err := Dial(ctx, url)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer c.Close()
	c.timeout = 100 * time.Millisecond

	h := srv.lookup(c.ID())
	h.mu.Lock()
	time.AfterFunc(250*time.Millisecond, h.mu.Unlock)

	sel := engine.NewSelector(rand.New(rand.NewSource(5)))
	player := autoplay.NewPlayer(sel, autoplay.Config{
		MaxMoves:             20,
		MaxConsecutiveErrors: 10,
		RetryDelay:           50 * time.Millisecond,
	}, nil)

	res, err := player.Play(ctx, c, "remote")
	if err != nil {
		t.Fatalf("Play() failed: %v", err)
	}
	if res.Moves == 0 || res.GameID != c.ID() {
		t.Errorf("Result = %+v, want moves on game %s", res, c.ID())
	}
}

func TestResumeUnknownGame(t *testing.T) {
	_, url := startServerWith(t, DefaultServerConfig())

	resume, err := resumeURL(url, "no-such-game")
	if err != nil {
		t.Fatalf("resumeURL() failed: %v", err)
	}
	_, resp, err := websocket.DefaultDialer.Dial(resume, nil)
	if err == nil {
		t.Fatal("dialing an unknown game should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("response = %v, want 404", resp)
	}
}

func TestDroppedGameExpires(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.ResumeWindow = 50 * time.Millisecond
	srv, url := startServerWith(t, cfg)

	c, err := Dial(context.Background(), url)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	id := c.ID()
	c.Close()

	deadline := time.Now().Add(3 * time.Second)
	for srv.lookup(id) != nil {
		if time.Now().After(deadline) {
			t.Fatal("game still kept after the resume window")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestServerPingsIdleClients(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.ReadTimeout = 300 * time.Millisecond
	_, url := startServerWith(t, cfg)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer conn.Close()

	pings := make(chan struct{}, 16)
	conn.SetPingHandler(func(data string) error {
		pings <- struct{}{}
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	replies := make(chan Envelope, 1)
	go func() {
		for {
			var env Envelope
			if err := conn.ReadJSON(&env); err != nil {
				close(replies)
				return
			}
			replies <- env
		}
	}()

	// Stay silent for several read timeouts; answered pings keep us alive.
	for i := 0; i < 3; i++ {
		select {
		case <-pings:
		case <-time.After(2 * time.Second):
			t.Fatalf("ping %d never arrived", i+1)
		}
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"state"}`)); err != nil {
		t.Fatalf("write after idle: %v", err)
	}
	select {
	case env, ok := <-replies:
		if !ok || env.Type != TypeState {
			t.Errorf("reply after idle = %+v (open %v), want state", env, ok)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reply after idle period")
	}
}
