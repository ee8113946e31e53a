package engine

import (
	"math/rand"
	"testing"
)

func TestCompact(t *testing.T) {
	tests := []struct {
		name     string
		input    Line
		expected Line
	}{
		{"empty", Line{0, 0, 0, 0}, Line{0, 0, 0, 0}},
		{"already packed", Line{2, 4, 0, 0}, Line{2, 4, 0, 0}},
		{"gaps", Line{0, 2, 0, 4}, Line{2, 4, 0, 0}},
		{"trailing tile", Line{0, 0, 0, 8}, Line{8, 0, 0, 0}},
		{"full", Line{2, 4, 8, 16}, Line{2, 4, 8, 16}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compact(tt.input); got != tt.expected {
				t.Errorf("compact(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSlideLine(t *testing.T) {
	tests := []struct {
		name     string
		input    Line
		expected Line
		gained   int
	}{
		{"simple merge", Line{2, 2, 0, 0}, Line{4, 0, 0, 0}, 4},
		{"merge with trailing tile", Line{2, 2, 2, 0}, Line{4, 2, 0, 0}, 4},
		{"double merge", Line{2, 2, 2, 2}, Line{4, 4, 0, 0}, 8},
		{"two different pairs", Line{2, 2, 4, 4}, Line{4, 8, 0, 0}, 12},
		{"no merge possible", Line{2, 4, 8, 16}, Line{2, 4, 8, 16}, 0},
		{"slide with gap", Line{0, 0, 2, 2}, Line{4, 0, 0, 0}, 4},
		{"slide with multiple gaps", Line{2, 0, 0, 2}, Line{4, 0, 0, 0}, 4},
		{"merged tile does not merge again", Line{4, 4, 8, 0}, Line{8, 8, 0, 0}, 8},
		{"no change needed", Line{4, 2, 0, 0}, Line{4, 2, 0, 0}, 0},
		{"empty line", Line{0, 0, 0, 0}, Line{0, 0, 0, 0}, 0},
		{"single tile", Line{0, 4, 0, 0}, Line{4, 0, 0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, gained := slideLine(tt.input)
			if got != tt.expected {
				t.Errorf("slideLine(%v) = %v, want %v", tt.input, got, tt.expected)
			}
			if gained != tt.gained {
				t.Errorf("slideLine(%v) gained = %d, want %d", tt.input, gained, tt.gained)
			}
		})
	}
}

func TestSimulateDirections(t *testing.T) {
	tests := []struct {
		name     string
		dir      Direction
		board    Board
		expected Board
	}{
		{
			name: "left",
			dir:  Left,
			board: Board{
				{2, 2, 0, 0},
				{4, 0, 4, 0},
				{2, 2, 2, 2},
				{0, 0, 0, 2},
			},
			expected: Board{
				{4, 0, 0, 0},
				{8, 0, 0, 0},
				{4, 4, 0, 0},
				{2, 0, 0, 0},
			},
		},
		{
			name: "right",
			dir:  Right,
			board: Board{
				{2, 2, 0, 0},
				{4, 0, 4, 0},
				{2, 2, 2, 2},
				{0, 0, 0, 2},
			},
			expected: Board{
				{0, 0, 0, 4},
				{0, 0, 0, 8},
				{0, 0, 4, 4},
				{0, 0, 0, 2},
			},
		},
		{
			name: "up",
			dir:  Up,
			board: Board{
				{2, 4, 2, 0},
				{2, 0, 2, 0},
				{0, 4, 2, 0},
				{0, 0, 2, 2},
			},
			expected: Board{
				{4, 8, 4, 2},
				{0, 0, 4, 0},
				{0, 0, 0, 0},
				{0, 0, 0, 0},
			},
		},
		{
			name: "down",
			dir:  Down,
			board: Board{
				{2, 4, 2, 2},
				{2, 0, 2, 0},
				{0, 4, 2, 0},
				{0, 0, 2, 0},
			},
			expected: Board{
				{0, 0, 0, 0},
				{0, 0, 0, 0},
				{0, 0, 4, 0},
				{4, 8, 4, 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Simulate(tt.board, tt.dir)
			if err != nil {
				t.Fatalf("Simulate() failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Simulate(%s): got\n%v\nwant\n%v", tt.dir, got, tt.expected)
			}
		})
	}
}

func TestSimulateLeavesInputUntouched(t *testing.T) {
	board := Board{
		{2, 2, 4, 4},
		{0, 2, 0, 2},
		{8, 0, 0, 8},
		{0, 0, 0, 0},
	}
	original := board

	for _, dir := range Directions {
		if _, err := Simulate(board, dir); err != nil {
			t.Fatalf("Simulate(%s) failed: %v", dir, err)
		}
		if board != original {
			t.Fatalf("Simulate(%s) modified its input:\n%v", dir, board)
		}
	}
}

func TestSimulateExample(t *testing.T) {
	board := Board{{2, 2, 0, 0}}
	got, err := Simulate(board, Left)
	if err != nil {
		t.Fatalf("Simulate() failed: %v", err)
	}
	if want := (Board{{4, 0, 0, 0}}); got != want {
		t.Errorf("Simulate(left) = \n%v\nwant\n%v", got, want)
	}
}

func TestSimulateNoOpReturnsSameBoard(t *testing.T) {
	board := Board{
		{2, 4, 0, 0},
		{8, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}

	got, err := Simulate(board, Left)
	if err != nil {
		t.Fatalf("Simulate() failed: %v", err)
	}
	if got != board {
		t.Errorf("Simulate(left) on packed board = \n%v\nwant unchanged", got)
	}
}

func TestSimulateRejectsBadInput(t *testing.T) {
	if _, err := Simulate(Board{{3}}, Left); !isInvalidBoard(err) {
		t.Errorf("Simulate(non power of two) error = %v, want InvalidBoardError", err)
	}
	if _, err := Simulate(Board{{-2}}, Left); !isInvalidBoard(err) {
		t.Errorf("Simulate(negative) error = %v, want InvalidBoardError", err)
	}
	if _, err := Simulate(Board{}, Direction(7)); err == nil {
		t.Error("Simulate(bad direction) should fail")
	}
}

func TestSlideScore(t *testing.T) {
	board := Board{
		{2, 2, 0, 0},
		{4, 0, 4, 0},
		{2, 2, 2, 2},
		{0, 0, 0, 2},
	}

	_, gained, err := Slide(board, Left)
	if err != nil {
		t.Fatalf("Slide() failed: %v", err)
	}
	if want := 4 + 8 + 4 + 4; gained != want {
		t.Errorf("Slide(left) gained = %d, want %d", gained, want)
	}
}

// randomLine returns a line of random tiles with some empty cells.
func randomLine(rng *rand.Rand) Line {
	var line Line
	for i := range line {
		if rng.Intn(3) == 0 {
			continue
		}
		line[i] = 2 << rng.Intn(3)
	}
	return line
}

func nonZero(line Line) []int {
	var out []int
	for _, v := range line {
		if v != 0 {
			out = append(out, v)
		}
	}
	return out
}

func TestCompactProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for range 500 {
		line := randomLine(rng)
		got := compact(line)

		want := nonZero(line)
		have := nonZero(got)
		if len(want) != len(have) {
			t.Fatalf("compact(%v) = %v: tile count changed", line, got)
		}
		for i := range want {
			if want[i] != have[i] {
				t.Fatalf("compact(%v) = %v: order changed", line, got)
			}
		}
		// Non-zero cells form one run against the leading edge.
		for i := len(have); i < Size; i++ {
			if got[i] != 0 {
				t.Fatalf("compact(%v) = %v: gap in the tile run", line, got)
			}
		}
	}
}

func TestMergeConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	for range 500 {
		line := compact(randomLine(rng))
		merged, gained := merge(line)

		events := 0
		for i := range Size {
			if merged[i] != line[i] && merged[i] != 0 {
				events++
			}
		}

		sum := func(l Line) int {
			total := 0
			for _, v := range l {
				total += v
			}
			return total
		}

		if sum(merged) != sum(line) {
			t.Fatalf("merge(%v) = %v: tile sum changed", line, merged)
		}
		if len(nonZero(line))-len(nonZero(merged)) != events {
			t.Fatalf("merge(%v) = %v: want one tile fewer per merge (%d merges)", line, merged, events)
		}
		if events == 0 && gained != 0 {
			t.Fatalf("merge(%v) gained %d without merging", line, gained)
		}
	}
}
