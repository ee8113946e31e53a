package engine

import "fmt"

// compact slides the non-zero cells of a line against the leading edge,
// keeping their relative order.
func compact(line Line) Line {
	var result Line
	writePos := 0
	for _, v := range line {
		if v != 0 {
			result[writePos] = v
			writePos++
		}
	}
	return result
}

// merge doubles each equal adjacent pair scanning from the leading edge. The
// second cell of a merged pair becomes zero and is skipped, so a merged tile
// cannot merge again in the same pass. Returns the line and the sum of the
// tiles created by merging.
func merge(line Line) (Line, int) {
	gained := 0
	for i := 0; i < Size-1; i++ {
		if line[i] != 0 && line[i] == line[i+1] {
			line[i] *= 2
			line[i+1] = 0
			gained += line[i]
			i++
		}
	}
	return line, gained
}

// slideLine applies one move to a single line.
func slideLine(line Line) (Line, int) {
	merged, gained := merge(compact(line))
	return compact(merged), gained
}

// lineAt extracts line i of the board oriented toward dir's leading edge:
// rows for Left/Right, columns for Up/Down.
func (b Board) lineAt(dir Direction, i int) Line {
	var line Line
	for k := range Size {
		switch dir {
		case Left:
			line[k] = b[i][k]
		case Right:
			line[k] = b[i][Size-1-k]
		case Up:
			line[k] = b[k][i]
		case Down:
			line[k] = b[Size-1-k][i]
		}
	}
	return line
}

// setLine writes line i back using the same orientation as lineAt.
func (b *Board) setLine(dir Direction, i int, line Line) {
	for k := range Size {
		switch dir {
		case Left:
			b[i][k] = line[k]
		case Right:
			b[i][Size-1-k] = line[k]
		case Up:
			b[k][i] = line[k]
		case Down:
			b[Size-1-k][i] = line[k]
		}
	}
}

// slide moves every line of an already validated board.
func slide(board Board, dir Direction) (Board, int) {
	result := board
	gained := 0
	for i := range Size {
		line, g := slideLine(board.lineAt(dir, i))
		result.setLine(dir, i, line)
		gained += g
	}
	return result, gained
}

func simulate(board Board, dir Direction) Board {
	result, _ := slide(board, dir)
	return result
}

// Simulate returns the board that results from moving in dir. The input is
// not modified. A move that changes nothing returns a board equal to the
// input; detecting that is left to the caller.
func Simulate(board Board, dir Direction) (Board, error) {
	if !dir.Valid() {
		return board, fmt.Errorf("%w: %d", ErrInvalidDirection, int(dir))
	}
	if err := board.Validate(); err != nil {
		return board, err
	}
	return simulate(board, dir), nil
}

// Slide is Simulate plus the classic game score for the move: the sum of
// every tile created by a merge.
func Slide(board Board, dir Direction) (Board, int, error) {
	if !dir.Valid() {
		return board, 0, fmt.Errorf("%w: %d", ErrInvalidDirection, int(dir))
	}
	if err := board.Validate(); err != nil {
		return board, 0, err
	}
	result, gained := slide(board, dir)
	return result, gained, nil
}
