package autoplay

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// SessionConfig controls how many games a session plays.
type SessionConfig struct {
	// TargetScore ends the session after the first game scoring at least
	// this much. 0 plays every game.
	TargetScore int

	// MaxGames bounds the number of games. 0 means no limit, which only
	// terminates once TargetScore is reached.
	MaxGames int
}

// Summary reports a finished session.
type Summary struct {
	Games   []Result
	Best    Result
	Reached bool // a game reached the target score
}

// Session plays games from a source until one reaches the target score.
type Session struct {
	player *Player
	source Source
	saver  ResultSaver
	config SessionConfig
	logger *log.Logger
}

// NewSession creates a session. saver may be nil to skip persistence. With
// neither a target nor a game limit the session plays a single game.
func NewSession(player *Player, source Source, saver ResultSaver, cfg SessionConfig, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg.TargetScore <= 0 && cfg.MaxGames <= 0 {
		cfg.MaxGames = 1
	}
	return &Session{
		player: player,
		source: source,
		saver:  saver,
		config: cfg,
		logger: logger,
	}
}

// Run plays games until one reaches the target or MaxGames runs out.
// Games finished before an error are still reported.
func (s *Session) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	for n := 1; s.config.MaxGames <= 0 || n <= s.config.MaxGames; n++ {
		prov, err := s.source.NewGame(ctx)
		if err != nil {
			return sum, fmt.Errorf("autoplay: start game %d: %w", n, err)
		}

		s.logger.Info("game started", "n", n, "game", prov.ID(), "source", s.source.Name())
		res, err := s.player.Play(ctx, prov, s.source.Name())
		if c, ok := prov.(io.Closer); ok {
			if cerr := c.Close(); cerr != nil {
				s.logger.Warn("could not close game", "game", prov.ID(), "error", cerr)
			}
		}
		if err != nil {
			return sum, err
		}

		if s.saver != nil {
			if err := s.saver.SaveResult(res); err != nil {
				// Results are a record, not a requirement for playing.
				s.logger.Warn("could not save result", "game", res.GameID, "error", err)
			}
		}

		sum.Games = append(sum.Games, res)
		if len(sum.Games) == 1 || res.Score > sum.Best.Score {
			sum.Best = res
		}

		if s.config.TargetScore > 0 && res.Score >= s.config.TargetScore {
			sum.Reached = true
			s.logger.Info("target reached", "score", res.Score, "target", s.config.TargetScore, "games", n)
			break
		}
	}

	return sum, nil
}
