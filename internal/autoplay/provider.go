// Package autoplay drives the move engine against a game-state provider: it
// fetches the board, picks a move and submits it, one turn at a time, and
// replays games until a target score is reached.
package autoplay

import (
	"context"
	"time"

	"github.com/vovakirdan/pilot2048/internal/engine"
)

// BoardFetcher reads the current board from the provider.
type BoardFetcher interface {
	FetchBoard(ctx context.Context) (engine.Board, error)
}

// MoveSubmitter sends a move to the provider. Submit must not return before
// the provider has applied the move, so the next fetch sees the new board.
type MoveSubmitter interface {
	Submit(ctx context.Context, dir engine.Direction) error
}

// Provider is one running game.
type Provider interface {
	BoardFetcher
	MoveSubmitter

	// ID identifies the game in logs and stored results.
	ID() string

	// GameOver reports whether the game has ended.
	GameOver(ctx context.Context) (bool, error)

	// Score returns the game's current score.
	Score(ctx context.Context) (int, error)
}

// Source starts new games.
type Source interface {
	Name() string
	NewGame(ctx context.Context) (Provider, error)
}

// EndReason describes why a game stopped.
type EndReason string

const (
	ReasonGameOver EndReason = "game_over"
	ReasonMaxMoves EndReason = "max_moves"
)

// Result summarizes one finished game.
type Result struct {
	GameID   string
	Source   string
	Score    int
	MaxTile  int
	Moves    int
	Stalls   int // turns whose move left the board unchanged
	Reason   EndReason
	Duration time.Duration
}

// ResultSaver persists finished games.
// This lets the session record results without a storage dependency.
type ResultSaver interface {
	SaveResult(r Result) error
}
