package engine

import "errors"

// ErrInvalidDirection is returned for a Direction outside Left, Right, Up, Down.
var ErrInvalidDirection = errors.New("engine: invalid direction")

// InvalidBoardError reports a board that violates the grid contract: wrong
// cell count, a negative value or a non-zero value that is not a power of two.
type InvalidBoardError struct {
	Reason string
}

func (e *InvalidBoardError) Error() string {
	return "engine: invalid board: " + e.Reason
}

// DomainError reports an input a scoring function is not defined for, such as
// an all-zero board passed to the scorer.
type DomainError struct {
	Op  string
	Msg string
}

func (e *DomainError) Error() string {
	return "engine: " + e.Op + ": " + e.Msg
}
