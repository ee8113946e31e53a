package game

import (
	"context"
	"math/rand"
	"sync"

	"github.com/vovakirdan/pilot2048/internal/autoplay"
)

// Source deals new local games. Game seeds are drawn from a generator seeded
// once, so a whole session replays from a single seed.
type Source struct {
	mu     sync.Mutex
	rng    *rand.Rand
	spawn4 float64
}

// NewSource creates a source of local games.
func NewSource(seed int64, spawn4 float64) *Source {
	return &Source{
		rng:    rand.New(rand.NewSource(seed)),
		spawn4: spawn4,
	}
}

// Name identifies local games in stored results.
func (s *Source) Name() string {
	return "local"
}

// NextSeed returns the seed for the next game.
func (s *Source) NextSeed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Int63()
}

// NewGame starts a fresh local game.
func (s *Source) NewGame(ctx context.Context) (autoplay.Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return New(s.NextSeed(), s.spawn4), nil
}

var _ autoplay.Source = (*Source)(nil)
var _ autoplay.Provider = (*Game)(nil)
