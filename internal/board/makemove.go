package board

// MakeMove plays a legal move and returns what UnmakeMove needs to take it
// back. Hash, castling rights, en passant square, clocks and checkers are
// all updated.
func (p *Position) MakeMove(m Move) Undo {
	undo := Undo{
		Captured:       NoPiece,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		Checkers:       p.Checkers,
	}

	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	mover := p.PieceTypeAt(from)

	p.Hash ^= castlingKeys[p.CastlingRights]
	if p.EnPassant != NoSquare {
		p.Hash ^= enPassantKeys[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}

	if m.IsEnPassant() {
		victim := epVictim(to, us)
		p.remove(them, Pawn, victim)
		undo.Captured = NewPiece(Pawn, them)
	} else if captured := p.PieceTypeAt(to); captured != NoPieceType {
		p.remove(them, captured, to)
		undo.Captured = NewPiece(captured, them)
	}

	if m.IsPromotion() {
		p.remove(us, Pawn, from)
		p.put(us, m.Promotion(), to)
	} else {
		p.shift(us, mover, from, to)
	}

	if m.IsCastling() {
		rookFrom, rookTo := castlingRook(to)
		p.shift(us, Rook, rookFrom, rookTo)
	}

	p.CastlingRights &^= castlingLoss[from] | castlingLoss[to]
	p.Hash ^= castlingKeys[p.CastlingRights]

	if mover == Pawn && (to-from == 16 || from-to == 16) {
		p.EnPassant = (from + to) / 2
		p.Hash ^= enPassantKeys[p.EnPassant.File()]
	}

	if mover == Pawn || undo.Captured != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = them
	p.Hash ^= blackToMove
	p.updateCheckers()
	return undo
}

// UnmakeMove reverts m, which must be the last move made with undo.
func (p *Position) UnmakeMove(m Move, undo Undo) {
	p.SideToMove = p.SideToMove.Other()
	us := p.SideToMove
	from, to := m.From(), m.To()

	if m.IsCastling() {
		rookFrom, rookTo := castlingRook(to)
		p.shift(us, Rook, rookTo, rookFrom)
	}

	if m.IsPromotion() {
		p.remove(us, m.Promotion(), to)
		p.put(us, Pawn, from)
	} else {
		p.shift(us, p.PieceTypeAt(to), to, from)
	}

	if undo.Captured != NoPiece {
		sq := to
		if m.IsEnPassant() {
			sq = epVictim(to, us)
		}
		p.put(undo.Captured.Color(), undo.Captured.Type(), sq)
	}

	if us == Black {
		p.FullMoveNumber--
	}
	p.CastlingRights = undo.CastlingRights
	p.EnPassant = undo.EnPassant
	p.HalfMoveClock = undo.HalfMoveClock
	p.Hash = undo.Hash
	p.Checkers = undo.Checkers
}

// epVictim is the square of the pawn taken by an en passant capture onto to.
func epVictim(to Square, us Color) Square {
	if us == White {
		return to - 8
	}
	return to + 8
}

// castlingRook returns the rook's squares for a castling king landing on to.
func castlingRook(to Square) (from, dest Square) {
	switch to {
	case G1:
		return H1, F1
	case C1:
		return A1, D1
	case G8:
		return H8, F8
	default:
		return A8, D8
	}
}
