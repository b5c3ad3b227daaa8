package chess

// IsLegalGeometry reports whether the piece on from may move to to by its
// movement pattern and path-blocking rules. It ignores whether the move
// exposes the mover's own king, and only pawns look at the color of the
// piece on the target square.
func IsLegalGeometry(b *Board, from, to Square) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	piece := b.At(from)
	switch piece.Kind {
	case Pawn:
		return pawnMove(b, from, to, piece.Color)
	case Rook:
		return rookMove(b, from, to)
	case Knight:
		return knightMove(from, to)
	case Bishop:
		return bishopMove(b, from, to)
	case Queen:
		return rookMove(b, from, to) || bishopMove(b, from, to)
	case King:
		return kingMove(from, to)
	default:
		return false
	}
}

func pawnMove(b *Board, from, to Square, color Color) bool {
	dir, home := -1, 6
	if color == Black {
		dir, home = 1, 1
	}
	target := b.At(to)
	if from.Col == to.Col && target.IsEmpty() {
		if from.Row+dir == to.Row {
			return true
		}
		if from.Row == home && from.Row+2*dir == to.Row {
			return b.At(Square{Row: from.Row + dir, Col: from.Col}).IsEmpty()
		}
	}
	if abs(from.Col-to.Col) == 1 && from.Row+dir == to.Row {
		return !target.IsEmpty() && target.Color != color
	}
	return false
}

func rookMove(b *Board, from, to Square) bool {
	if from.Row != to.Row && from.Col != to.Col {
		return false
	}
	return pathClear(b, from, to)
}

func bishopMove(b *Board, from, to Square) bool {
	if abs(from.Row-to.Row) != abs(from.Col-to.Col) {
		return false
	}
	return pathClear(b, from, to)
}

func knightMove(from, to Square) bool {
	dr, dc := abs(from.Row-to.Row), abs(from.Col-to.Col)
	return (dr == 2 && dc == 1) || (dr == 1 && dc == 2)
}

func kingMove(from, to Square) bool {
	return abs(from.Row-to.Row) <= 1 && abs(from.Col-to.Col) <= 1
}

// pathClear checks every square strictly between from and to along a
// straight or diagonal line.
func pathClear(b *Board, from, to Square) bool {
	dr, dc := sign(to.Row-from.Row), sign(to.Col-from.Col)
	row, col := from.Row+dr, from.Col+dc
	for row != to.Row || col != to.Col {
		if !b[row][col].IsEmpty() {
			return false
		}
		row += dr
		col += dc
	}
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// Rules layers optional restrictions on top of IsLegalGeometry.
type Rules struct {
	// ForbidFriendlyCapture rejects moves onto a square held by a piece of
	// the mover's own color.
	ForbidFriendlyCapture bool
	// ForbidSelfCheck rejects moves that leave the mover's king attacked.
	ForbidSelfCheck bool
}

// DefaultRules guards against friendly captures and otherwise leaves own-king
// exposure to the checkmate search.
func DefaultRules() Rules {
	return Rules{ForbidFriendlyCapture: true}
}

// LegacyRules is pure geometric legality.
func LegacyRules() Rules {
	return Rules{}
}

// allows is geometry plus the friendly-capture guard. It is the candidate
// filter used by the checkmate search.
func (r Rules) allows(b *Board, from, to Square) bool {
	if from == to || !IsLegalGeometry(b, from, to) {
		return false
	}
	// no rule set lets a side take its own king
	if target := b.At(to); target.Kind == King && target.Color == b.At(from).Color {
		return false
	}
	if r.ForbidFriendlyCapture {
		if target := b.At(to); !target.IsEmpty() && target.Color == b.At(from).Color {
			return false
		}
	}
	return true
}

// CanMove reports whether the piece on from may move to to under r.
func (r Rules) CanMove(b *Board, from, to Square) (bool, error) {
	if !r.allows(b, from, to) {
		return false, nil
	}
	if !r.ForbidSelfCheck {
		return true, nil
	}
	mover := b.At(from).Color
	next := *b
	next.ApplyMove(from, to)
	inCheck, err := IsInCheck(&next, mover)
	if err != nil {
		return false, err
	}
	return !inCheck, nil
}

// LegalTargets lists every square the piece on from may move to under r, in
// row-major order.
func (r Rules) LegalTargets(b *Board, from Square) ([]Square, error) {
	var out []Square
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			to := Square{Row: row, Col: col}
			ok, err := r.CanMove(b, from, to)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, to)
			}
		}
	}
	return out, nil
}
