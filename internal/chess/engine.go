package chess

import (
	"fmt"
)

// Engine is one game: a board, the side to move, the current selection and
// the rules moves are judged by. It is not safe for concurrent use.
type Engine struct {
	board     Board
	turn      Color
	selection *Square
	status    GameStatus
	rules     Rules
	fullMove  int
	check     Color
}

func NewEngine(rules Rules) *Engine {
	e := &Engine{rules: rules}
	e.Reset()
	return e
}

func NewEngineFromFEN(fen string, rules Rules) (*Engine, error) {
	board, turn, err := ParseFEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid FEN: %w", err)
	}

	e := &Engine{
		board:    board,
		turn:     turn,
		status:   StatusActive,
		rules:    rules,
		fullMove: 1,
	}
	e.check, e.status, err = rules.evaluate(&board, turn)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Reset puts the standard starting position back on the board.
func (e *Engine) Reset() {
	e.board = NewBoard()
	e.turn = White
	e.selection = nil
	e.status = StatusActive
	e.fullMove = 1
	e.check = NoColor
}

// Click feeds one square click into the selection state machine.
func (e *Engine) Click(sq Square) (*ClickResult, error) {
	if !sq.Valid() {
		return nil, fmt.Errorf("%w: (%d, %d)", ErrOutOfRange, sq.Row, sq.Col)
	}
	if e.status != StatusActive {
		return nil, ErrGameOver
	}

	if e.selection == nil {
		p := e.board.At(sq)
		if p.IsEmpty() || p.Color != e.turn {
			return &ClickResult{Action: ClickIgnored}, nil
		}
		sel := sq
		e.selection = &sel
		return &ClickResult{Action: ClickSelected, Selection: e.Selection()}, nil
	}

	from := *e.selection
	e.selection = nil
	if from == sq {
		return &ClickResult{Action: ClickDeselected}, nil
	}

	ok, err := e.rules.CanMove(&e.board, from, sq)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &ClickResult{Action: ClickDeselected}, nil
	}

	outcome, err := e.apply(from, sq)
	if err != nil {
		return nil, err
	}
	return &ClickResult{Action: ClickMoved, Outcome: outcome}, nil
}

// Move plays from→to for the side to move, bypassing selection. Unlike
// Click, a rejected move is reported as ErrIllegalMove.
func (e *Engine) Move(from, to Square) (*MoveOutcome, error) {
	if !from.Valid() || !to.Valid() {
		return nil, fmt.Errorf("%w: %v to %v", ErrOutOfRange, from, to)
	}
	if e.status != StatusActive {
		return nil, ErrGameOver
	}
	if p := e.board.At(from); p.IsEmpty() || p.Color != e.turn {
		return nil, fmt.Errorf("%w: no %s piece on %s", ErrIllegalMove, e.turn, from)
	}
	ok, err := e.rules.CanMove(&e.board, from, to)
	if err != nil {
		return nil, err
	}
	if !ok || from == to {
		return nil, fmt.Errorf("%w: %s to %s", ErrIllegalMove, from, to)
	}

	e.selection = nil
	return e.apply(from, to)
}

// MakeMove is Move with algebraic squares, e.g. MakeMove("e2", "e4").
func (e *Engine) MakeMove(from, to string) (*MoveOutcome, error) {
	fromSquare, err := ParseSquare(from)
	if err != nil {
		return nil, err
	}
	toSquare, err := ParseSquare(to)
	if err != nil {
		return nil, err
	}
	return e.Move(fromSquare, toSquare)
}

// apply plays a move the rules already allowed. The result is evaluated on a
// copy so a failed evaluation leaves the game untouched.
func (e *Engine) apply(from, to Square) (*MoveOutcome, error) {
	mover := e.turn
	opponent := mover.Opponent()
	next := e.board
	piece := next.At(from)
	captured := next.ApplyMove(from, to)

	outcome := &MoveOutcome{
		From:     from.String(),
		To:       to.String(),
		Piece:    piece.String(),
		Captured: captured.String(),
	}

	// with self-check allowed a king can be taken; that ends the game
	if captured.Kind == King {
		e.board = next
		e.check = NoColor
		e.status = wonBy(mover)
		outcome.KingCaptured = true
		outcome.Winner = mover
		outcome.GameOver = true
		outcome.FEN = e.FEN()
		return outcome, nil
	}

	check, status, err := e.rules.evaluate(&next, opponent)
	if err != nil {
		return nil, err
	}
	e.board = next
	e.check = check
	e.status = status
	outcome.Check = check

	if status != StatusActive {
		outcome.Checkmate = true
		outcome.Winner = mover
		outcome.GameOver = true
	} else {
		if mover == Black {
			e.fullMove++
		}
		e.turn = opponent
	}
	outcome.FEN = e.FEN()
	return outcome, nil
}

// evaluate reports whether c is in check on b and the game status that
// follows: won by c's opponent if c is mated, active otherwise.
func (r Rules) evaluate(b *Board, c Color) (Color, GameStatus, error) {
	inCheck, err := IsInCheck(b, c)
	if err != nil {
		return NoColor, StatusActive, err
	}
	if !inCheck {
		return NoColor, StatusActive, nil
	}
	mated, err := r.IsCheckmate(b, c)
	if err != nil {
		return NoColor, StatusActive, err
	}
	if mated {
		return c, wonBy(c.Opponent()), nil
	}
	return c, StatusActive, nil
}

func wonBy(c Color) GameStatus {
	if c == White {
		return StatusWhiteWon
	}
	return StatusBlackWon
}

// Board returns a copy of the current board.
func (e *Engine) Board() Board {
	return e.board
}

func (e *Engine) Turn() Color {
	return e.turn
}

func (e *Engine) Selection() *Square {
	if e.selection == nil {
		return nil
	}
	sel := *e.selection
	return &sel
}

func (e *Engine) Status() GameStatus {
	return e.status
}

func (e *Engine) Rules() Rules {
	return e.rules
}

// InCheck returns the side currently in check, or NoColor.
func (e *Engine) InCheck() Color {
	return e.check
}

func (e *Engine) FEN() string {
	return PositionFEN(&e.board, e.turn, e.fullMove)
}

// LegalTargets lists the squares the piece on from may move to.
func (e *Engine) LegalTargets(from Square) ([]Square, error) {
	if !from.Valid() {
		return nil, fmt.Errorf("%w: (%d, %d)", ErrOutOfRange, from.Row, from.Col)
	}
	return e.rules.LegalTargets(&e.board, from)
}

func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Board:         e.board.Letters(),
		Turn:          e.turn,
		Selection:     e.Selection(),
		Status:        e.status,
		Check:         e.check,
		FEN:           e.FEN(),
		MaterialCount: e.board.MaterialCount(),
	}
}
