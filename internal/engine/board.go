// Package engine implements the 2048 move engine: a board simulator, a
// heuristic scorer and a move selector. Everything here is a pure function of
// its inputs except the selector's tie-break, which draws from an injected
// random source.
package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is the board dimension.
const Size = 4

// Board is a 4x4 grid of tile values. Zero marks an empty cell; any other
// value is a power of two >= 2. Board is a value type: every simulated move
// returns a new Board and never touches the input.
type Board [Size][Size]int

// Line is one row or column oriented so that index 0 is the leading edge.
type Line [Size]int

// FromRows builds a board from a row-major slice of rows.
func FromRows(rows [][]int) (Board, error) {
	var b Board
	if len(rows) != Size {
		return b, &InvalidBoardError{Reason: fmt.Sprintf("want %d rows, got %d", Size, len(rows))}
	}
	for y, row := range rows {
		if len(row) != Size {
			return b, &InvalidBoardError{Reason: fmt.Sprintf("row %d: want %d cells, got %d", y, Size, len(row))}
		}
		copy(b[y][:], row)
	}
	return b, b.Validate()
}

// FromCells builds a board from 16 cells in row-major order.
func FromCells(cells []int) (Board, error) {
	var b Board
	if len(cells) != Size*Size {
		return b, &InvalidBoardError{Reason: fmt.Sprintf("want %d cells, got %d", Size*Size, len(cells))}
	}
	for i, v := range cells {
		b[i/Size][i%Size] = v
	}
	return b, b.Validate()
}

// ParseBoard reads a board from text. Rows may be separated by '/' or
// newlines and cells by commas or whitespace, e.g. "2,2,0,0/0,0,0,0/0,0,0,0/0,0,0,0".
func ParseBoard(s string) (Board, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '/' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	cells := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return Board{}, &InvalidBoardError{Reason: fmt.Sprintf("cell %q is not a number", f)}
		}
		cells = append(cells, v)
	}
	return FromCells(cells)
}

// Validate reports whether every cell is zero or a power of two >= 2.
func (b Board) Validate() error {
	for y := range Size {
		for x := range Size {
			v := b[y][x]
			switch {
			case v < 0:
				return &InvalidBoardError{Reason: fmt.Sprintf("cell (%d,%d) is negative: %d", y, x, v)}
			case v == 0:
			case v == 1 || v&(v-1) != 0:
				return &InvalidBoardError{Reason: fmt.Sprintf("cell (%d,%d) is not a power of two: %d", y, x, v)}
			}
		}
	}
	return nil
}

// Cells returns the board flattened in row-major order.
func (b Board) Cells() []int {
	cells := make([]int, 0, Size*Size)
	for y := range Size {
		cells = append(cells, b[y][:]...)
	}
	return cells
}

// Rows returns the board as a slice of rows, the shape used on the wire.
func (b Board) Rows() [][]int {
	rows := make([][]int, Size)
	for y := range Size {
		rows[y] = append([]int(nil), b[y][:]...)
	}
	return rows
}

// EmptyCount returns the number of empty cells.
func (b Board) EmptyCount() int {
	n := 0
	for y := range Size {
		for x := range Size {
			if b[y][x] == 0 {
				n++
			}
		}
	}
	return n
}

// MaxTile returns the largest tile value, or 0 for an empty board.
func (b Board) MaxTile() int {
	maxVal := 0
	for y := range Size {
		for x := range Size {
			if b[y][x] > maxVal {
				maxVal = b[y][x]
			}
		}
	}
	return maxVal
}

// Sum returns the total of all tile values.
func (b Board) Sum() int {
	total := 0
	for y := range Size {
		for x := range Size {
			total += b[y][x]
		}
	}
	return total
}

// CanMove reports whether any direction would change the board.
func (b Board) CanMove() bool {
	for y := range Size {
		for x := range Size {
			val := b[y][x]
			if val == 0 {
				return true
			}
			if x < Size-1 && b[y][x+1] == val {
				return true
			}
			if y < Size-1 && b[y+1][x] == val {
				return true
			}
		}
	}
	return false
}

// String renders the board as a right-aligned grid, one row per line.
func (b Board) String() string {
	width := len(strconv.Itoa(b.MaxTile()))
	if width < 1 {
		width = 1
	}

	var sb strings.Builder
	for y := range Size {
		for x := range Size {
			if x > 0 {
				sb.WriteByte(' ')
			}
			cell := "."
			if b[y][x] != 0 {
				cell = strconv.Itoa(b[y][x])
			}
			sb.WriteString(strings.Repeat(" ", width-len(cell)))
			sb.WriteString(cell)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
