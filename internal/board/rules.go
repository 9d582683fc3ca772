package board

// IsCheckmate reports whether the side to move is mated.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate reports whether the side to move has no moves and is not in check.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsFiftyMoveDraw reports whether a hundred half-moves passed without a
// capture or pawn move. Mate on the hundredth half-move still counts as mate.
func (p *Position) IsFiftyMoveDraw() bool {
	return p.HalfMoveClock >= 100 && (!p.InCheck() || p.HasLegalMoves())
}

// IsInsufficientMaterial reports dead positions: bare kings, or a single
// minor piece against a bare king.
func (p *Position) IsInsufficientMaterial() bool {
	w, b := &p.Pieces[White], &p.Pieces[Black]
	if w[Pawn]|b[Pawn]|w[Rook]|b[Rook]|w[Queen]|b[Queen] != 0 {
		return false
	}
	minors := (w[Knight] | w[Bishop] | b[Knight] | b[Bishop]).PopCount()
	return minors <= 1
}

// Perft counts the leaf nodes of the legal move tree to depth.
func (p *Position) Perft(depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := p.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}
	var nodes uint64
	for _, m := range moves.Slice() {
		undo := p.MakeMove(m)
		nodes += p.Perft(depth - 1)
		p.UnmakeMove(m, undo)
	}
	return nodes
}

// Divide returns the perft count below each root move.
func (p *Position) Divide(depth int) map[Move]uint64 {
	out := make(map[Move]uint64)
	if depth < 1 {
		return out
	}
	for _, m := range p.GenerateLegalMoves().Slice() {
		undo := p.MakeMove(m)
		out[m] = p.Perft(depth - 1)
		p.UnmakeMove(m, undo)
	}
	return out
}
