package chess

import (
	"fmt"
	"strings"
)

type GameStatus string

const (
	StatusActive   GameStatus = "active"
	StatusWhiteWon GameStatus = "white_won"
	StatusBlackWon GameStatus = "black_won"
)

// Color is the side a piece belongs to. The zero value is NoColor.
type Color uint8

const (
	NoColor Color = iota
	White
	Black
)

func (c Color) Opponent() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoColor
	}
}

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return ""
	}
}

// Title returns the capitalized color name used in notifications.
func (c Color) Title() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return ""
	}
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "white", "w":
		*c = White
	case "black", "b":
		*c = Black
	case "":
		*c = NoColor
	default:
		return fmt.Errorf("unknown color %q", text)
	}
	return nil
}

// Kind is the type of a chess piece.
type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Rook
	Knight
	Bishop
	Queen
	King
)

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Rook:
		return "rook"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return ""
	}
}

// Piece is a kind and a color. Two pieces with the same kind and color are
// interchangeable.
type Piece struct {
	Kind  Kind
	Color Color
}

// NoPiece marks an empty square.
var NoPiece = Piece{}

func (p Piece) IsEmpty() bool {
	return p.Kind == NoKind
}

var kindLetters = map[Kind]byte{
	Pawn:   'p',
	Rook:   'r',
	Knight: 'n',
	Bishop: 'b',
	Queen:  'q',
	King:   'k',
}

// String returns the FEN letter of the piece, or "" for an empty square.
func (p Piece) String() string {
	l, ok := kindLetters[p.Kind]
	if !ok {
		return ""
	}
	if p.Color == White {
		l -= 'a' - 'A'
	}
	return string(l)
}

// PieceFromLetter parses a FEN piece letter.
func PieceFromLetter(r rune) (Piece, bool) {
	color := Black
	if r >= 'A' && r <= 'Z' {
		color = White
		r += 'a' - 'A'
	}
	for k, l := range kindLetters {
		if rune(l) == r {
			return Piece{Kind: k, Color: color}, true
		}
	}
	return NoPiece, false
}

// Square addresses one cell of the board. Row 0 is black's back rank,
// row 7 is white's; col 0..7 are files a..h.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func NewSquare(row, col int) (Square, error) {
	sq := Square{Row: row, Col: col}
	if !sq.Valid() {
		return Square{}, fmt.Errorf("%w: (%d, %d)", ErrOutOfRange, row, col)
	}
	return sq, nil
}

func (s Square) Valid() bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

// String returns algebraic notation, e.g. "e2".
func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return fmt.Sprintf("%c%d", 'a'+s.Col, 8-s.Row)
}

// Move is a from/to pair.
type Move struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}

func (m Move) String() string {
	return m.From.String() + m.To.String()
}

// MoveOutcome describes an accepted move and what it did to the opponent.
type MoveOutcome struct {
	From         string `json:"from"`
	To           string `json:"to"`
	Piece        string `json:"piece"`
	Captured     string `json:"captured,omitempty"`
	Check        Color  `json:"check,omitempty"`
	Checkmate    bool   `json:"checkmate"`
	KingCaptured bool   `json:"kingCaptured,omitempty"`
	Winner       Color  `json:"winner,omitempty"`
	GameOver     bool   `json:"gameOver"`
	FEN          string `json:"fen"`
}

// Notifications returns the user-facing messages for the outcome.
func (o *MoveOutcome) Notifications() []string {
	var msgs []string
	if o.Check != NoColor {
		msgs = append(msgs, fmt.Sprintf("%s is in check", o.Check.Title()))
	}
	if o.Checkmate {
		msgs = append(msgs, fmt.Sprintf("%s wins by checkmate", o.Winner.Title()))
	}
	if o.KingCaptured {
		msgs = append(msgs, fmt.Sprintf("%s wins by capturing the king", o.Winner.Title()))
	}
	return msgs
}

type ClickAction string

const (
	ClickIgnored    ClickAction = "ignored"
	ClickSelected   ClickAction = "selected"
	ClickDeselected ClickAction = "deselected"
	ClickMoved      ClickAction = "moved"
)

type ClickResult struct {
	Action    ClickAction  `json:"action"`
	Selection *Square      `json:"selection,omitempty"`
	Outcome   *MoveOutcome `json:"outcome,omitempty"`
}

// MaterialCount represents the material count for both sides
type MaterialCount struct {
	White int `json:"white"`
	Black int `json:"black"`
}

// StandardPieceValues maps piece kinds to their standard values
var StandardPieceValues = map[Kind]int{
	Pawn:   1,
	Knight: 3,
	Bishop: 3,
	Rook:   5,
	Queen:  9,
	King:   0, // King has no material value
}

// Snapshot is everything a presentation layer needs to redraw a game.
type Snapshot struct {
	Board         [8][8]string  `json:"board"`
	Turn          Color         `json:"turn"`
	Selection     *Square       `json:"selection,omitempty"`
	Status        GameStatus    `json:"status"`
	Check         Color         `json:"check,omitempty"`
	FEN           string        `json:"fen"`
	MaterialCount MaterialCount `json:"materialCount"`
}
