package chess

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfRange         = errors.New("square out of range")
	ErrInvariantViolation = errors.New("board invariant violated")
	ErrKingNotFound       = fmt.Errorf("%w: king not found", ErrInvariantViolation)
	ErrGameOver           = errors.New("game is over")
	ErrIllegalMove        = errors.New("illegal move")
	ErrInvalidSquare      = errors.New("invalid square notation")
	ErrInvalidFEN         = errors.New("invalid FEN")
)
