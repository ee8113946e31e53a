package tui

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pilot2048/internal/autoplay"
	"github.com/vovakirdan/pilot2048/internal/engine"
	"github.com/vovakirdan/pilot2048/internal/game"
)

const (
	maxFPS = 60

	// restartPause is how long a finished game stays on screen before the
	// next one starts.
	restartPause = 2 * time.Second
)

// WatchConfig configures the autopilot viewer.
type WatchConfig struct {
	Seed        int64
	Spawn4      float64
	FPS         int
	TargetScore int  // stop auto-restarting once a game reaches it; 0 never stops
	AutoRestart bool // start the next game after a game over

	// Record is the stored high score shown next to this session's best.
	Record int

	// Saver records finished games. May be nil.
	Saver autoplay.ResultSaver

	// Logger receives game results. May be nil.
	Logger *log.Logger
}

// WatchModel is the Bubble Tea model that shows the autopilot playing a
// local game, one move per tick.
type WatchModel struct {
	config WatchConfig
	source *game.Source
	game   *game.Game
	player *autoplay.Player
	logger *log.Logger
	keys   WatchKeyMap
	help   help.Model

	fps      int
	paused   bool
	stepOnce bool

	last     autoplay.Turn
	haveLast bool
	turns    int
	stalls   int
	started  time.Time

	finished  bool // current game is over and recorded
	overTicks int
	games     int
	best      int
	reached   bool
	err       error

	width    int
	height   int
	quitting bool
}

// NewWatchModel creates a viewer with a fresh local game.
func NewWatchModel(cfg WatchConfig) WatchModel {
	if cfg.FPS <= 0 {
		cfg.FPS = 8
	}
	if cfg.FPS > maxFPS {
		cfg.FPS = maxFPS
	}
	if cfg.Spawn4 <= 0 {
		cfg.Spawn4 = game.DefaultSpawn4
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	sel := engine.NewSelector(rand.New(rand.NewSource(cfg.Seed)))
	source := game.NewSource(cfg.Seed, cfg.Spawn4)

	h := help.New()
	h.ShowAll = false

	return WatchModel{
		config:  cfg,
		source:  source,
		game:    game.New(source.NextSeed(), cfg.Spawn4),
		player:  autoplay.NewPlayer(sel, autoplay.Config{}, logger),
		logger:  logger,
		keys:    DefaultWatchKeyMap(),
		help:    h,
		fps:     cfg.FPS,
		started: time.Now(),
	}
}

// Init starts the tick loop.
func (m WatchModel) Init() tea.Cmd {
	return tickCmd(m.fps)
}

// Update handles messages and advances the game on ticks.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m WatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused

	case key.Matches(msg, m.keys.Step):
		m.paused = true
		m.stepOnce = true

	case key.Matches(msg, m.keys.Restart):
		m.restart()

	case key.Matches(msg, m.keys.Faster):
		m.fps = min(m.fps*2, maxFPS)

	case key.Matches(msg, m.keys.Slower):
		m.fps = max(m.fps/2, 1)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

// handleTick plays at most one move per tick.
func (m WatchModel) handleTick() (tea.Model, tea.Cmd) {
	next := tickCmd(m.fps)

	if m.finished {
		if m.config.AutoRestart && !m.reached {
			m.overTicks++
			if time.Duration(m.overTicks)*time.Second/time.Duration(m.fps) >= restartPause {
				m.restart()
			}
		}
		return m, next
	}

	if m.paused && !m.stepOnce {
		return m, next
	}
	m.stepOnce = false
	m.advance()

	return m, next
}

// advance plays one turn and records the game once it ends.
func (m *WatchModel) advance() {
	if m.game.Snapshot().Over {
		m.finish()
		return
	}

	turn, err := m.player.Step(context.Background(), m.game)
	if err != nil {
		m.err = err
		m.paused = true
		return
	}

	m.turns++
	turn.Number = m.turns
	if m.haveLast && turn.Board == m.last.Board {
		m.stalls++
	}
	m.last = turn
	m.haveLast = true

	if m.game.Snapshot().Over {
		m.finish()
	}
}

// finish records the current game once.
func (m *WatchModel) finish() {
	if m.finished {
		return
	}
	m.finished = true

	snap := m.game.Snapshot()
	res := autoplay.Result{
		GameID:   snap.ID,
		Source:   m.source.Name(),
		Score:    snap.Score,
		MaxTile:  snap.Board.MaxTile(),
		Moves:    snap.Moves,
		Stalls:   m.stalls,
		Reason:   autoplay.ReasonGameOver,
		Duration: time.Since(m.started),
	}

	m.games++
	m.best = max(m.best, res.Score)
	if m.config.TargetScore > 0 && res.Score >= m.config.TargetScore {
		m.reached = true
	}

	m.logger.Info("game finished", "game", res.GameID, "score", res.Score, "max_tile", res.MaxTile, "moves", res.Moves)

	if m.config.Saver != nil && res.Score > 0 {
		if err := m.config.Saver.SaveResult(res); err != nil {
			m.logger.Warn("could not save result", "game", res.GameID, "error", err)
		}
	}
}

// restart deals a new game.
func (m *WatchModel) restart() {
	m.game.Reset(m.source.NextSeed())
	m.last = autoplay.Turn{}
	m.haveLast = false
	m.turns = 0
	m.stalls = 0
	m.started = time.Now()
	m.finished = false
	m.overTicks = 0
	m.err = nil
}

// View renders the board, the last decision and the HUD.
func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}

	snap := m.game.Snapshot()
	var b strings.Builder

	b.WriteString(titleStyle.Render("2048 AUTOPILOT"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Score: %d  Moves: %d  Max: %d  Best: %d  Record: %d  Games: %d",
		snap.Score, snap.Moves, snap.Board.MaxTile(), m.best, max(m.config.Record, m.best), m.games))
	b.WriteString("\n\n")

	panel := dimStyle.Render("waiting for first move")
	if m.haveLast {
		panel = RenderOutcomes(m.last.Outcomes, m.last.Direction)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, RenderBoard(snap.Board), "  ", panel))
	b.WriteString("\n")

	b.WriteString(m.status(snap))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))

	if m.width > 0 {
		return lipgloss.NewStyle().MaxWidth(m.width).Render(b.String())
	}
	return b.String()
}

func (m WatchModel) status(snap game.Snapshot) string {
	switch {
	case m.finished && m.reached:
		return titleStyle.Render(fmt.Sprintf("TARGET %d REACHED", m.config.TargetScore))
	case m.finished:
		return titleStyle.Render("GAME OVER") + dimStyle.Render("  r: new game")
	case m.paused:
		return dimStyle.Render("PAUSED  n: single move")
	default:
		return dimStyle.Render(fmt.Sprintf("running at %d moves/s  stalls: %d", m.fps, m.stalls))
	}
}

// RunWatch runs the autopilot viewer until the user quits.
func RunWatch(cfg WatchConfig) error {
	p := tea.NewProgram(
		NewWatchModel(cfg),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
