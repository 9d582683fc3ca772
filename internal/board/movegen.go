package board

// GenerateLegalMoves returns every legal move in the position.
func (p *Position) GenerateLegalMoves() *MoveList {
	var pseudo, legal MoveList
	p.generate(&pseudo, false)
	p.filterLegal(&pseudo, &legal)
	return &legal
}

// GenerateCaptures returns the legal captures, en passant captures and
// promotions (quiet promotions included).
func (p *Position) GenerateCaptures() *MoveList {
	var pseudo, legal MoveList
	p.generate(&pseudo, true)
	p.filterLegal(&pseudo, &legal)
	return &legal
}

// HasLegalMoves reports whether the side to move has any legal move.
func (p *Position) HasLegalMoves() bool {
	var pseudo MoveList
	p.generate(&pseudo, false)
	pinned := p.pinned()
	for _, m := range pseudo.Slice() {
		if p.isLegal(m, pinned) {
			return true
		}
	}
	return false
}

// generate appends pseudo-legal moves. With tactical set only captures and
// promotions are produced.
func (p *Position) generate(ml *MoveList, tactical bool) {
	us := p.SideToMove
	enemies := p.Occupied[us.Other()]
	targets := ^p.Occupied[us]
	if tactical {
		targets = enemies
	}

	p.generatePawnMoves(ml, tactical)

	for pt := Knight; pt <= King; pt++ {
		for pieces := p.Pieces[us][pt]; pieces != 0; {
			from := pieces.PopLSB()
			for to := PieceAttacks(pt, from, p.AllOccupied) & targets; to != 0; {
				ml.Add(NewMove(from, to.PopLSB()))
			}
		}
	}

	if !tactical && p.Checkers == 0 {
		p.generateCastling(ml)
	}
}

func (p *Position) generatePawnMoves(ml *MoveList, tactical bool) {
	us := p.SideToMove
	pawns := p.Pieces[us][Pawn]
	enemies := p.Occupied[us.Other()]
	empty := ^p.AllOccupied

	promoRank, doubleRank, step := Rank8, Rank3, 8
	if us == Black {
		promoRank, doubleRank, step = Rank1, Rank6, -8
	}

	single := pawns.forward(us) & empty
	emit := func(targets Bitboard, delta int) {
		for targets != 0 {
			to := targets.PopLSB()
			from := Square(int(to) - delta)
			if promoRank.Has(to) {
				for promo := Queen; promo >= Knight; promo-- {
					ml.Add(NewPromotion(from, to, promo))
				}
			} else {
				ml.Add(NewMove(from, to))
			}
		}
	}

	if tactical {
		emit(single&promoRank, step)
	} else {
		emit(single, step)
		emit((single&doubleRank).forward(us)&empty, 2*step)
	}

	// Captures towards the east and west files.
	east, west := pawns.northEast(), pawns.northWest()
	if us == Black {
		east, west = pawns.southEast(), pawns.southWest()
	}
	emit(east&enemies, step+1)
	emit(west&enemies, step-1)

	if p.EnPassant != NoSquare {
		for from := pawnAttacks[us.Other()][p.EnPassant] & pawns; from != 0; {
			ml.Add(NewEnPassant(from.PopLSB(), p.EnPassant))
		}
	}
}

func (p *Position) generateCastling(ml *MoveList) {
	us := p.SideToMove
	them := us.Other()
	type option struct {
		right          CastlingRights
		king, to, rook Square
		empty          Bitboard
		pass           Square
	}
	options := [2]option{
		{WhiteKingSide, E1, G1, H1, SquareBB(F1) | SquareBB(G1), F1},
		{WhiteQueenSide, E1, C1, A1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), D1},
	}
	if us == Black {
		options = [2]option{
			{BlackKingSide, E8, G8, H8, SquareBB(F8) | SquareBB(G8), F8},
			{BlackQueenSide, E8, C8, A8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), D8},
		}
	}
	for _, o := range options {
		if p.CastlingRights&o.right == 0 || p.AllOccupied&o.empty != 0 {
			continue
		}
		if p.KingSquare[us] != o.king || !p.Pieces[us][Rook].Has(o.rook) {
			continue
		}
		if p.IsSquareAttacked(o.pass, them) || p.IsSquareAttacked(o.to, them) {
			continue
		}
		ml.Add(NewCastling(o.king, o.to))
	}
}

func (p *Position) filterLegal(pseudo, legal *MoveList) {
	pinned := p.pinned()
	for _, m := range pseudo.Slice() {
		if p.isLegal(m, pinned) {
			legal.Add(m)
		}
	}
}

// isLegal decides whether a pseudo-legal move leaves the own king safe.
// Most moves are settled by pin and check geometry; en passant, which
// removes two pieces from a rank at once, is played out on the board.
func (p *Position) isLegal(m Move, pinned Bitboard) bool {
	us := p.SideToMove
	ksq := p.KingSquare[us]
	from, to := m.From(), m.To()

	if from == ksq {
		if m.IsCastling() {
			return true
		}
		return p.AttackersByColor(to, us.Other(), p.AllOccupied&^SquareBB(from)) == 0
	}

	if m.IsEnPassant() {
		undo := p.MakeMove(m)
		safe := !p.IsSquareAttacked(ksq, us.Other())
		p.UnmakeMove(m, undo)
		return safe
	}

	if pinned.Has(from) && !Aligned(from, to, ksq) {
		return false
	}

	switch p.Checkers.PopCount() {
	case 0:
		return true
	case 1:
		checker := p.Checkers.LSB()
		return (SquareBB(checker) | Between(checker, ksq)).Has(to)
	default:
		return false
	}
}
