package chess

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

var toNotnil = map[Piece]chess.Piece{
	{King, White}:   chess.WhiteKing,
	{Queen, White}:  chess.WhiteQueen,
	{Rook, White}:   chess.WhiteRook,
	{Bishop, White}: chess.WhiteBishop,
	{Knight, White}: chess.WhiteKnight,
	{Pawn, White}:   chess.WhitePawn,
	{King, Black}:   chess.BlackKing,
	{Queen, Black}:  chess.BlackQueen,
	{Rook, Black}:   chess.BlackRook,
	{Bishop, Black}: chess.BlackBishop,
	{Knight, Black}: chess.BlackKnight,
	{Pawn, Black}:   chess.BlackPawn,
}

var fromNotnil = func() map[chess.Piece]Piece {
	m := make(map[chess.Piece]Piece, len(toNotnil))
	for p, np := range toNotnil {
		m[np] = p
	}
	return m
}()

// ParseSquare converts algebraic notation ("e2") into a Square.
func ParseSquare(sq string) (Square, error) {
	if len(sq) != 2 {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquare, sq)
	}

	file := int(sq[0]) - 'a'
	rank := int(sq[1]) - '1'

	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquare, sq)
	}

	return Square{Row: 7 - rank, Col: file}, nil
}

func notnilSquare(sq Square) chess.Square {
	return chess.Square((7-sq.Row)*8 + sq.Col)
}

func squareFromNotnil(sq chess.Square) Square {
	return Square{Row: 7 - int(sq)/8, Col: int(sq) % 8}
}

func (b Board) notnilBoard() *chess.Board {
	m := make(map[chess.Square]chess.Piece)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p, ok := toNotnil[b[row][col]]; ok {
				m[notnilSquare(Square{Row: row, Col: col})] = p
			}
		}
	}
	return chess.NewBoard(m)
}

// FEN returns the piece placement field of the board.
func (b Board) FEN() string {
	return b.notnilBoard().String()
}

// Draw renders the board as text, white at the bottom.
func (b Board) Draw() string {
	return b.notnilBoard().Draw()
}

// PositionFEN returns a full FEN record. Castling and en passant are not
// supported and are always written as "-".
func PositionFEN(b *Board, turn Color, fullMove int) string {
	side := "w"
	if turn == Black {
		side = "b"
	}
	if fullMove < 1 {
		fullMove = 1
	}
	return fmt.Sprintf("%s %s - - 0 %d", b.FEN(), side, fullMove)
}

// ParseFEN reads the piece placement and side to move of a FEN record. Both
// kings must be present exactly once.
func ParseFEN(fen string) (Board, Color, error) {
	if strings.TrimSpace(fen) == "" {
		return Board{}, NoColor, fmt.Errorf("%w: empty", ErrInvalidFEN)
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return Board{}, NoColor, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	pos := chess.NewGame(opt).Position()

	var b Board
	kings := map[Color]int{}
	for sq, np := range pos.Board().SquareMap() {
		p, ok := fromNotnil[np]
		if !ok {
			continue
		}
		if p.Kind == King {
			kings[p.Color]++
		}
		b.Set(squareFromNotnil(sq), p)
	}
	if kings[White] != 1 || kings[Black] != 1 {
		return Board{}, NoColor, fmt.Errorf("%w: %w: need exactly one king per side", ErrInvalidFEN, ErrInvariantViolation)
	}

	turn := White
	if pos.Turn() == chess.Black {
		turn = Black
	}
	return b, turn, nil
}
