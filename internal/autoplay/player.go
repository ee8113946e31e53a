package autoplay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pilot2048/internal/engine"
)

// Config controls the turn loop.
type Config struct {
	// MaxMoves stops a game after this many turns. 0 means no limit.
	MaxMoves int

	// MoveDelay is the pause between turns.
	MoveDelay time.Duration

	// MaxConsecutiveErrors is how many provider errors in a row are
	// tolerated before the game is abandoned.
	MaxConsecutiveErrors int

	// RetryDelay is the pause before retrying after a provider error.
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxMoves:             100000,
		MaxConsecutiveErrors: 5,
		RetryDelay:           500 * time.Millisecond,
	}
}

// Turn records one decision.
type Turn struct {
	Number    int
	Board     engine.Board // board the decision was made on
	Outcomes  [len(engine.Directions)]engine.Outcome
	Direction engine.Direction
}

// Player plays games with a move selector.
type Player struct {
	selector *engine.Selector
	config   Config
	logger   *log.Logger
	onTurn   func(Turn)
}

// NewPlayer creates a player. A nil logger discards output.
func NewPlayer(sel *engine.Selector, cfg Config, logger *log.Logger) *Player {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Player{
		selector: sel,
		config:   cfg,
		logger:   logger,
	}
}

// OnTurn registers a callback invoked after every submitted move.
func (p *Player) OnTurn(fn func(Turn)) {
	p.onTurn = fn
}

// Step plays a single turn: fetch the board, choose a move, submit it.
func (p *Player) Step(ctx context.Context, prov Provider) (Turn, error) {
	board, err := prov.FetchBoard(ctx)
	if err != nil {
		return Turn{}, fmt.Errorf("autoplay: fetch board: %w", err)
	}

	outcomes, dir, err := p.selector.Rank(board)
	if err != nil {
		return Turn{}, fmt.Errorf("autoplay: select move: %w", err)
	}

	if err := prov.Submit(ctx, dir); err != nil {
		return Turn{}, fmt.Errorf("autoplay: submit %s: %w", dir, err)
	}

	return Turn{
		Board:     board,
		Outcomes:  outcomes,
		Direction: dir,
	}, nil
}

// Play runs prov to completion and returns its result. Engine errors abort
// the game at once; provider errors are retried up to
// Config.MaxConsecutiveErrors times in a row.
func (p *Player) Play(ctx context.Context, prov Provider, source string) (Result, error) {
	start := time.Now()
	res := Result{GameID: prov.ID(), Source: source}
	logger := p.logger.With("game", prov.ID())

	failures := 0
	var prev engine.Board
	havePrev := false

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		over, err := prov.GameOver(ctx)
		if err != nil {
			if err := p.tolerate(ctx, logger, &failures, fmt.Errorf("autoplay: game over check: %w", err)); err != nil {
				return res, err
			}
			continue
		}
		if over {
			res.Reason = ReasonGameOver
			break
		}
		if p.config.MaxMoves > 0 && res.Moves >= p.config.MaxMoves {
			res.Reason = ReasonMaxMoves
			break
		}

		turn, err := p.Step(ctx, prov)
		if err != nil {
			if err := p.tolerate(ctx, logger, &failures, err); err != nil {
				return res, err
			}
			continue
		}
		failures = 0

		res.Moves++
		turn.Number = res.Moves
		if havePrev && turn.Board == prev {
			res.Stalls++
			logger.Debug("previous move had no effect", "turn", turn.Number)
		}
		prev, havePrev = turn.Board, true

		logger.Debug("move", "turn", turn.Number, "direction", turn.Direction, "board", "\n"+turn.Board.String())
		if p.onTurn != nil {
			p.onTurn(turn)
		}

		if err := sleep(ctx, p.config.MoveDelay); err != nil {
			return res, err
		}
	}

	if err := p.finish(ctx, prov, &res); err != nil {
		return res, err
	}
	res.Duration = time.Since(start)

	logger.Info("game finished",
		"score", res.Score,
		"max_tile", res.MaxTile,
		"moves", res.Moves,
		"reason", res.Reason,
	)
	return res, nil
}

// finish reads the final score and board.
func (p *Player) finish(ctx context.Context, prov Provider, res *Result) error {
	score, err := prov.Score(ctx)
	if err != nil {
		return fmt.Errorf("autoplay: final score: %w", err)
	}
	board, err := prov.FetchBoard(ctx)
	if err != nil {
		return fmt.Errorf("autoplay: final board: %w", err)
	}
	res.Score = score
	res.MaxTile = board.MaxTile()
	return nil
}

// tolerate decides whether err ends the game. It returns nil when the turn
// should be retried.
func (p *Player) tolerate(ctx context.Context, logger *log.Logger, failures *int, err error) error {
	if isEngineError(err) || ctx.Err() != nil {
		return err
	}

	*failures++
	if *failures > p.config.MaxConsecutiveErrors {
		return fmt.Errorf("autoplay: giving up after %d consecutive errors: %w", *failures, err)
	}

	logger.Warn("provider error, retrying", "attempt", *failures, "error", err)
	return sleep(ctx, p.config.RetryDelay)
}

func isEngineError(err error) bool {
	var invalid *engine.InvalidBoardError
	var domain *engine.DomainError
	return errors.As(err, &invalid) || errors.As(err, &domain) || errors.Is(err, engine.ErrInvalidDirection)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
