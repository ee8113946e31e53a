package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/pilot2048/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// SSHServerConfig configures the viewer SSH server.
type SSHServerConfig struct {
	Address string

	// HostKeyPath defaults to ~/.pilot2048/host_key; wish generates the key
	// on first start.
	HostKeyPath string

	DBPath      string
	IdleTimeout time.Duration

	// Watch is the viewer template. Every session gets its own seed.
	Watch WatchConfig
}

// SSHServer shows the autopilot to every connected SSH user. Each session
// watches an independent game; finished games go to one shared store.
type SSHServer struct {
	config   SSHServerConfig
	server   *ssh.Server
	store    *storage.Store
	logger   *log.Logger
	sessions atomic.Int64
}

// NewSSHServer builds the server. A missing results database is logged and
// the server runs without saving. A nil logger discards output.
func NewSSHServer(cfg SSHServerConfig, logger *log.Logger) (*SSHServer, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	keyPath, err := resolveHostKeyPath(cfg.HostKeyPath)
	if err != nil {
		return nil, err
	}

	srv := &SSHServer{config: cfg, logger: logger}
	if store, openErr := storage.Open(cfg.DBPath); openErr != nil {
		logger.Warn("results will not be saved", "db", cfg.DBPath, "error", openErr)
	} else {
		srv.store = store
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(keyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.viewerFor),
			srv.trackSession,
		),
	)
	if err != nil {
		srv.closeStore()
		return nil, fmt.Errorf("tui: cannot create SSH server: %w", err)
	}
	srv.server = server
	return srv, nil
}

// resolveHostKeyPath fills in the default key location and makes sure its
// directory exists.
func resolveHostKeyPath(path string) (string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("tui: cannot get home directory: %w", err)
		}
		path = filepath.Join(home, ".pilot2048", "host_key")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("tui: cannot create host key directory: %w", err)
	}
	return path, nil
}

func (s *SSHServer) viewerFor(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sess.Pty()
	if !ok {
		wish.Fatalln(sess, "pilot needs an interactive terminal (ssh -t)")
		return nil, nil
	}

	wc := s.config.Watch
	wc.Seed = time.Now().UnixNano()
	wc.Logger = s.logger.With("user", sess.User())
	if s.store != nil {
		wc.Saver = s.store
		if record, err := s.store.HighScore("local"); err == nil {
			wc.Record = record
		}
	}

	m := NewWatchModel(wc)
	m.width, m.height = pty.Window.Width, pty.Window.Height
	return m, []tea.ProgramOption{tea.WithAltScreen()}
}

// trackSession counts live sessions and logs how long each one lasted.
func (s *SSHServer) trackSession(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		start := time.Now()
		live := s.sessions.Add(1)
		s.logger.Info("viewer connected", "user", sess.User(), "remote", sess.RemoteAddr().String(), "live", live)

		next(sess)

		live = s.sessions.Add(-1)
		s.logger.Info("viewer left", "user", sess.User(), "after", time.Since(start).Round(time.Second), "live", live)
	}
}

// Sessions reports how many viewers are connected.
func (s *SSHServer) Sessions() int64 {
	return s.sessions.Load()
}

// ListenAndServe serves until ctx is cancelled, then shuts down.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	s.logger.Info("ssh viewer listening", "address", s.config.Address)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.closeStore()
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("tui: ssh server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "live", s.sessions.Load())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.server.Shutdown(shutdownCtx)
	s.closeStore()
	return err
}

func (s *SSHServer) closeStore() {
	if s.store != nil {
		s.store.Close()
		s.store = nil
	}
}
