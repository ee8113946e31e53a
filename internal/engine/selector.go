package engine

// Rand is the random source used for tie-breaks. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// tieOdds is the denominator of the chance a tied direction replaces the
// current best: a tie wins only when Intn(tieOdds) returns 0.
const tieOdds = 3

// Selector picks the next move for a board.
//
// A Selector is not safe for concurrent use unless its Rand is.
type Selector struct {
	rng Rand
}

// NewSelector returns a selector drawing tie-breaks from rng.
func NewSelector(rng Rand) *Selector {
	if rng == nil {
		panic("engine: nil random source")
	}
	return &Selector{rng: rng}
}

// SelectMove evaluates the four directions and returns the best one.
func (s *Selector) SelectMove(board Board) (Direction, error) {
	_, best, err := s.Rank(board)
	return best, err
}

// Rank evaluates every direction in Left, Right, Up, Down order and returns
// the outcomes in that order together with the chosen direction.
//
// A strictly better score always takes over. An equal score takes over with
// probability 1/3, so among tied directions the earliest evaluated one is
// favoured. The random source is consulted only on ties.
func (s *Selector) Rank(board Board) ([len(Directions)]Outcome, Direction, error) {
	var outcomes [len(Directions)]Outcome
	if err := board.Validate(); err != nil {
		return outcomes, Left, err
	}

	bestScore := -1
	best := Left
	for i, dir := range Directions {
		o, err := evaluate(board, simulate(board, dir))
		if err != nil {
			return outcomes, Left, err
		}
		o.Direction = dir
		outcomes[i] = o

		score := o.Score()
		switch {
		case score > bestScore:
			bestScore = score
			best = dir
		case score == bestScore && s.rng.Intn(tieOdds) == 0:
			best = dir
		}
	}
	return outcomes, best, nil
}
