// Package game implements a local 2048 game. It stands in for a remote
// game-state provider: the autopilot fetches its board, submits moves to it
// and asks it whether the game has ended.
package game

import (
	"context"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/vovakirdan/pilot2048/internal/engine"
)

// Game is a single 2048 game with deterministic tile spawning.
// It is safe for concurrent use.
type Game struct {
	mu sync.Mutex

	id     string
	seed   int64
	rng    *rand.Rand
	spawn4 float64

	board engine.Board
	score int
	moves int
	over  bool
}

// New creates a game seeded with seed and spawns the two opening tiles.
func New(seed int64, spawn4 float64) *Game {
	g := &Game{spawn4: spawn4}
	g.Reset(seed)
	return g
}

// Reset starts a fresh game with a new ID.
func (g *Game) Reset(seed int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.id = uuid.NewString()
	g.seed = seed
	g.rng = rand.New(rand.NewSource(seed))
	g.board = engine.Board{}
	g.score = 0
	g.moves = 0
	g.over = false

	// Spawn initial tiles (2 tiles)
	g.spawnTile()
	g.spawnTile()
}

// spawnTile spawns a new tile (2 or 4) in a random empty cell.
func (g *Game) spawnTile() {
	var empty [][2]int
	for y := range engine.Size {
		for x := range engine.Size {
			if g.board[y][x] == 0 {
				empty = append(empty, [2]int{y, x})
			}
		}
	}
	if len(empty) == 0 {
		return
	}

	cell := empty[g.rng.Intn(len(empty))]

	value := 2
	if g.rng.Float64() < g.spawn4 {
		value = 4
	}
	g.board[cell[0]][cell[1]] = value
}

// Move plays dir. A move that changes nothing spawns no tile and does not
// count. Returns whether the board changed.
func (g *Game) Move(dir engine.Direction) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.over {
		return false, nil
	}

	newBoard, gained, err := engine.Slide(g.board, dir)
	if err != nil {
		return false, err
	}
	if newBoard == g.board {
		return false, nil
	}

	g.board = newBoard
	g.score += gained
	g.moves++

	g.spawnTile()

	if !g.board.CanMove() {
		g.over = true
	}
	return true, nil
}

// Snapshot is a copy of the game state.
type Snapshot struct {
	ID    string
	Seed  int64
	Board engine.Board
	Score int
	Moves int
	Over  bool
}

// Snapshot returns the current state.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	return Snapshot{
		ID:    g.id,
		Seed:  g.seed,
		Board: g.board,
		Score: g.score,
		Moves: g.moves,
		Over:  g.over,
	}
}

// ID returns the game identifier.
func (g *Game) ID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.id
}

// FetchBoard returns the current board.
func (g *Game) FetchBoard(ctx context.Context) (engine.Board, error) {
	if err := ctx.Err(); err != nil {
		return engine.Board{}, err
	}
	return g.Snapshot().Board, nil
}

// Submit applies dir. The move is applied before Submit returns.
func (g *Game) Submit(ctx context.Context, dir engine.Direction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := g.Move(dir)
	return err
}

// GameOver reports whether no move can change the board.
func (g *Game) GameOver(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return g.Snapshot().Over, nil
}

// Score returns the accumulated merge score.
func (g *Game) Score(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return g.Snapshot().Score, nil
}
