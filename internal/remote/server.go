package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/pilot2048/internal/game"
)

const (
	writeTimeout    = 5 * time.Second
	shutdownTimeout = 10 * time.Second
	maxFrameSize    = 1 << 16
)

// ServerConfig holds configuration for the game server.
type ServerConfig struct {
	// Address is the host:port to listen on (e.g., ":8048").
	Address string

	// ReadTimeout closes connections that stay silent this long. Pings go
	// out at nine tenths of it.
	ReadTimeout time.Duration

	// ResumeWindow keeps a game alive after its last connection drops, so
	// a client can reattach with /ws?game=<id>.
	ResumeWindow time.Duration

	// Seed seeds the generator that deals game seeds.
	Seed int64

	// Spawn4 is the probability of spawning a 4.
	Spawn4 float64
}

// DefaultServerConfig returns a config with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Address:      ":8048",
		ReadTimeout:  60 * time.Second,
		ResumeWindow: 2 * time.Minute,
		Spawn4:       game.DefaultSpawn4,
	}
}

// hostedGame is a game plus the connections attached to it.
type hostedGame struct {
	// mu serializes requests from every connection attached to the game.
	mu   sync.Mutex
	game *game.Game

	// Guarded by Server.mu.
	conns  int
	expiry *time.Timer
}

// Server hosts local games over websocket. A new connection deals a new
// game; a connection to /ws?game=<id> reattaches to a kept one.
type Server struct {
	config   ServerConfig
	source   *game.Source
	logger   *log.Logger
	upgrader websocket.Upgrader
	active   atomic.Int64

	mu    sync.Mutex
	games map[string]*hostedGame
}

// NewServer creates a game server. A nil logger discards output.
func NewServer(cfg ServerConfig, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	def := DefaultServerConfig()
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.ResumeWindow <= 0 {
		cfg.ResumeWindow = def.ResumeWindow
	}
	return &Server{
		config: cfg,
		source: game.NewSource(cfg.Seed, cfg.Spawn4),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		games: make(map[string]*hostedGame),
	}
}

// Handler returns the HTTP handler serving /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("remote: listen %s: %w", s.config.Address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("game server listening", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("remote: serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// handleWS upgrades the request and serves its game on it.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	resume := r.URL.Query().Get("game")
	h, ok := s.attach(resume)
	if !ok {
		http.Error(w, "unknown game", http.StatusNotFound)
		return
	}
	defer s.detach(h)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	n := s.active.Add(1)
	logger := s.logger.With("remote", r.RemoteAddr)
	logger.Info("client connected", "game", h.game.ID(), "resumed", resume != "", "active", n)

	s.serveConn(conn, h, logger)

	n = s.active.Add(-1)
	logger.Info("client disconnected", "game", h.game.ID(), "active", n)
}

// attach returns the game with id, or deals a new one when id is empty.
func (s *Server) attach(id string) (*hostedGame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var h *hostedGame
	if id == "" {
		h = &hostedGame{game: game.New(s.source.NextSeed(), s.config.Spawn4)}
		s.games[h.game.ID()] = h
	} else if h = s.games[id]; h == nil {
		return nil, false
	}

	h.conns++
	if h.expiry != nil {
		h.expiry.Stop()
		h.expiry = nil
	}
	return h, true
}

// detach drops a connection from h. The game is forgotten once it has had
// no connection for the resume window.
func (s *Server) detach(h *hostedGame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h.conns--
	if h.conns > 0 {
		return
	}
	h.expiry = time.AfterFunc(s.config.ResumeWindow, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if h.conns == 0 {
			delete(s.games, h.game.ID())
		}
	})
}

// renew deals a fresh game into h and re-keys it. Callers hold h.mu.
func (s *Server) renew(h *hostedGame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.games, h.game.ID())
	h.game.Reset(s.source.NextSeed())
	s.games[h.game.ID()] = h
}

// lookup returns the kept game with id.
func (s *Server) lookup(id string) *hostedGame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.games[id]
}

// serveConn answers requests until the client goes away. Only this goroutine
// writes data frames to conn; pings go through WriteControl.
func (s *Server) serveConn(conn *websocket.Conn, h *hostedGame, logger *log.Logger) {
	defer conn.Close()

	conn.SetReadLimit(maxFrameSize)
	refresh := func() {
		_ = conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	}
	refresh()
	conn.SetPongHandler(func(string) error {
		refresh()
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go s.ping(conn, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("read failed", "error", err)
			}
			return
		}
		refresh()

		reply := s.handle(h, data, logger)

		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(reply); err != nil {
			logger.Debug("write failed", "error", err)
			return
		}
	}
}

// ping keeps an idle client's read deadline moving until done is closed.
func (s *Server) ping(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(s.config.ReadTimeout * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

// handle turns one request frame into a reply.
func (s *Server) handle(h *hostedGame, data []byte, logger *log.Logger) Envelope {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errorEnvelope("malformed message: %v", err)
	}

	var mv MovePayload
	switch env.Type {
	case TypeState, TypeNew:
	case TypeMove:
		if err := json.Unmarshal(env.Payload, &mv); err != nil {
			return errorEnvelope("bad move: %v", err)
		}
		if mv.Direction == nil {
			return errorEnvelope("bad move: missing direction")
		}
	default:
		return errorEnvelope("unknown message type %q", env.Type)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch env.Type {
	case TypeMove:
		if _, err := h.game.Move(*mv.Direction); err != nil {
			return errorEnvelope("move rejected: %v", err)
		}
	case TypeNew:
		s.renew(h)
		logger.Info("new game", "game", h.game.ID())
	}
	return newEnvelope(TypeState, statePayload(h.game.Snapshot()))
}

func statePayload(snap game.Snapshot) StatePayload {
	return StatePayload{
		GameID: snap.ID,
		Board:  snap.Board.Rows(),
		Score:  snap.Score,
		Moves:  snap.Moves,
		Over:   snap.Over,
	}
}

func errorEnvelope(format string, args ...any) Envelope {
	return newEnvelope(TypeError, ErrorPayload{Message: fmt.Sprintf(format, args...)})
}
