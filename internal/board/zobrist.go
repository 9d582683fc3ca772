package board

// Zobrist keys. The generator is seeded with a constant so hashes, and with
// them bench node counts, are stable across runs.
var (
	pieceKeys     [2][6][64]uint64
	enPassantKeys [8]uint64
	castlingKeys  [16]uint64
	blackToMove   uint64
)

func init() {
	state := uint64(0x98F107A2BEEF1234)
	next := func() uint64 {
		// xorshift64*
		state ^= state >> 12
		state ^= state << 25
		state ^= state >> 27
		return state * 0x2545F4914F6CDD1D
	}

	for c := range pieceKeys {
		for pt := range pieceKeys[c] {
			for sq := range pieceKeys[c][pt] {
				pieceKeys[c][pt][sq] = next()
			}
		}
	}
	for i := range enPassantKeys {
		enPassantKeys[i] = next()
	}
	for i := range castlingKeys {
		castlingKeys[i] = next()
	}
	blackToMove = next()
}

// ComputeHash rebuilds the Zobrist hash from scratch. MakeMove maintains it
// incrementally; tests compare the two.
func (p *Position) ComputeHash() uint64 {
	var h uint64
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for bb := p.Pieces[c][pt]; bb != 0; {
				h ^= pieceKeys[c][pt][bb.PopLSB()]
			}
		}
	}
	if p.SideToMove == Black {
		h ^= blackToMove
	}
	h ^= castlingKeys[p.CastlingRights]
	if p.EnPassant != NoSquare {
		h ^= enPassantKeys[p.EnPassant.File()]
	}
	return h
}
