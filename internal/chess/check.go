package chess

import "fmt"

// FindKing returns the first square, in row-major order, holding c's king.
func FindKing(b *Board, c Color) (Square, error) {
	king := Piece{Kind: King, Color: c}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if b[row][col] == king {
				return Square{Row: row, Col: col}, nil
			}
		}
	}
	return Square{}, fmt.Errorf("%w: %s", ErrKingNotFound, c)
}

// IsSquareAttacked reports whether any piece of color by has a geometrically
// legal move onto sq.
func IsSquareAttacked(b *Board, sq Square, by Color) bool {
	for _, from := range b.Squares(by) {
		if IsLegalGeometry(b, from, sq) {
			return true
		}
	}
	return false
}

// IsInCheck reports whether c's king is attacked by the opposing color.
func IsInCheck(b *Board, c Color) (bool, error) {
	kingSq, err := FindKing(b, c)
	if err != nil {
		return false, err
	}
	return IsSquareAttacked(b, kingSq, c.Opponent()), nil
}

// IsCheckmate reports whether c is checkmated using pure geometric
// legality for candidate moves. Pure geometry lets the king "capture" its
// own pieces, so positions that are mate under DefaultRules (fool's mate,
// where the king can take its own d2 pawn) are not mate here.
func IsCheckmate(b *Board, c Color) (bool, error) {
	return LegacyRules().IsCheckmate(b, c)
}

// IsCheckmate reports whether c is in check and no move allowed by r gets
// the king out of it.
func (r Rules) IsCheckmate(b *Board, c Color) (bool, error) {
	inCheck, err := IsInCheck(b, c)
	if err != nil || !inCheck {
		return false, err
	}
	_, found, err := r.FindEscape(b, c)
	if err != nil {
		return false, err
	}
	return !found, nil
}

// FindEscape searches c's pieces row-major, and their targets row-major,
// for the first move after which c is not in check. Every candidate is
// tried on a copy of b; b itself is never modified.
func (r Rules) FindEscape(b *Board, c Color) (Move, bool, error) {
	for _, from := range b.Squares(c) {
		for row := 0; row < 8; row++ {
			for col := 0; col < 8; col++ {
				to := Square{Row: row, Col: col}
				if !r.allows(b, from, to) {
					continue
				}
				next := *b
				next.ApplyMove(from, to)
				inCheck, err := IsInCheck(&next, c)
				if err != nil {
					return Move{}, false, err
				}
				if !inCheck {
					return Move{From: from, To: to}, true, nil
				}
			}
		}
	}
	return Move{}, false, nil
}
