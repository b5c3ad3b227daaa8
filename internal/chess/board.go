package chess

// Board is an 8x8 grid of optional pieces. It is a value type: assigning a
// Board copies every square.
type Board [8][8]Piece

var backRank = [8]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewBoard returns the standard starting position.
func NewBoard() Board {
	var b Board
	for col, kind := range backRank {
		b[0][col] = Piece{Kind: kind, Color: Black}
		b[1][col] = Piece{Kind: Pawn, Color: Black}
		b[6][col] = Piece{Kind: Pawn, Color: White}
		b[7][col] = Piece{Kind: kind, Color: White}
	}
	return b
}

// At returns the piece on sq, or NoPiece for empty or invalid squares.
func (b *Board) At(sq Square) Piece {
	if !sq.Valid() {
		return NoPiece
	}
	return b[sq.Row][sq.Col]
}

func (b *Board) Set(sq Square, p Piece) {
	b[sq.Row][sq.Col] = p
}

// ApplyMove moves whatever stands on from onto to and returns the piece that
// was previously on to. It performs no validation.
func (b *Board) ApplyMove(from, to Square) Piece {
	if from == to {
		return NoPiece
	}
	captured := b[to.Row][to.Col]
	b[to.Row][to.Col] = b[from.Row][from.Col]
	b[from.Row][from.Col] = NoPiece
	return captured
}

// Undo reverses ApplyMove given the piece it returned.
func (b *Board) Undo(from, to Square, captured Piece) {
	if from == to {
		return
	}
	b[from.Row][from.Col] = b[to.Row][to.Col]
	b[to.Row][to.Col] = captured
}

// Squares returns the occupied squares of the given color in row-major
// order.
func (b *Board) Squares(c Color) []Square {
	var out []Square
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p := b[row][col]; !p.IsEmpty() && p.Color == c {
				out = append(out, Square{Row: row, Col: col})
			}
		}
	}
	return out
}

// Letters returns the FEN letter of every square, "" for empty ones.
func (b Board) Letters() [8][8]string {
	var out [8][8]string
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			out[row][col] = b[row][col].String()
		}
	}
	return out
}

// MaterialCount sums StandardPieceValues for both sides.
func (b Board) MaterialCount() MaterialCount {
	var count MaterialCount
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			switch p.Color {
			case White:
				count.White += StandardPieceValues[p.Kind]
			case Black:
				count.Black += StandardPieceValues[p.Kind]
			}
		}
	}
	return count
}

// MaterialBalance is white material minus black material.
func (b Board) MaterialBalance() int {
	count := b.MaterialCount()
	return count.White - count.Black
}
