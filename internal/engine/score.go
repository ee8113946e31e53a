package engine

import (
	"math/bits"
	"slices"
)

// Outcome is the evaluation of one candidate move.
type Outcome struct {
	Direction   Direction
	Board       Board // board after the move
	Empty       int   // empty cells after the move
	Merged      int   // approximate number of tiles that changed value
	MaxExponent int   // log2 of the largest tile after the move
}

// Score combines the outcome terms into a single desirability value.
func (o Outcome) Score() int {
	return o.Empty + 2*o.Merged + o.MaxExponent
}

// Evaluate computes the heuristic terms of post relative to pre. The
// direction field of the result is left zero; Selector.Rank fills it in.
func Evaluate(pre, post Board) (Outcome, error) {
	if err := pre.Validate(); err != nil {
		return Outcome{}, err
	}
	if err := post.Validate(); err != nil {
		return Outcome{}, err
	}
	return evaluate(pre, post)
}

// Score returns the heuristic score of post relative to pre.
func Score(pre, post Board) (int, error) {
	o, err := Evaluate(pre, post)
	if err != nil {
		return 0, err
	}
	return o.Score(), nil
}

func evaluate(pre, post Board) (Outcome, error) {
	exp, err := maxExponent(post)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Board:       post,
		Empty:       post.EmptyCount(),
		Merged:      countMerged(pre, post),
		MaxExponent: exp,
	}, nil
}

// countMerged compares both boards as descending-sorted multisets and counts
// positions where both hold a tile and the tiles differ. It is a proxy for
// merge events, not an exact tally. Identical multisets count as zero.
func countMerged(pre, post Board) int {
	before := sortedDesc(pre)
	after := sortedDesc(post)
	if slices.Equal(before, after) {
		return 0
	}

	merged := 0
	for i := range before {
		if before[i] != 0 && after[i] != 0 && before[i] != after[i] {
			merged++
		}
	}
	return merged
}

func sortedDesc(b Board) []int {
	cells := b.Cells()
	slices.SortFunc(cells, func(a, c int) int { return c - a })
	return cells
}

// maxExponent returns floor(log2(max tile)).
func maxExponent(b Board) (int, error) {
	maxVal := b.MaxTile()
	if maxVal <= 0 {
		return 0, &DomainError{Op: "max exponent", Msg: "board has no tiles"}
	}
	return bits.Len(uint(maxVal)) - 1, nil
}
