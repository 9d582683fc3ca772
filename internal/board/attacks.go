package board

type direction struct{ df, dr int }

var (
	rookDirections   = [4]direction{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	bishopDirections = [4]direction{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
)

var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard

	// betweenBB holds the squares strictly between two aligned squares,
	// lineBB the whole line through them. Both are empty when not aligned.
	betweenBB [64][64]Bitboard
	lineBB    [64][64]Bitboard
)

func init() {
	for sq := A1; sq <= H8; sq++ {
		b := SquareBB(sq)
		knightAttacks[sq] = (b<<17)&notFileA | (b<<15)&notFileH |
			(b>>15)&notFileA | (b>>17)&notFileH |
			(b<<10)&notFileAB | (b<<6)&notFileGH |
			(b>>6)&notFileAB | (b>>10)&notFileGH
		kingAttacks[sq] = b.north() | b.south() | b.east() | b.west() |
			b.northEast() | b.northWest() | b.southEast() | b.southWest()
		pawnAttacks[White][sq] = b.northEast() | b.northWest()
		pawnAttacks[Black][sq] = b.southEast() | b.southWest()
	}

	for from := A1; from <= H8; from++ {
		for _, d := range append(rookDirections[:], bishopDirections[:]...) {
			var ray Bitboard
			for f, r := from.File()+d.df, from.Rank()+d.dr; onBoard(f, r); f, r = f+d.df, r+d.dr {
				to := NewSquare(f, r)
				betweenBB[from][to] = ray
				ray |= SquareBB(to)
			}
			full := ray | SquareBB(from) | walk(from, direction{-d.df, -d.dr}, 0)
			for r := ray; r != 0; {
				lineBB[from][r.PopLSB()] = full
			}
		}
	}

	initMagics()
}

func onBoard(file, rank int) bool {
	return file >= 0 && file < 8 && rank >= 0 && rank < 8
}

// walk returns the squares reached from sq along d, stopping on (and
// including) the first occupied square.
func walk(sq Square, d direction, occupied Bitboard) Bitboard {
	var attacks Bitboard
	for f, r := sq.File()+d.df, sq.Rank()+d.dr; onBoard(f, r); f, r = f+d.df, r+d.dr {
		to := SquareBB(NewSquare(f, r))
		attacks |= to
		if occupied&to != 0 {
			break
		}
	}
	return attacks
}

func slowAttacks(sq Square, occupied Bitboard, dirs [4]direction) Bitboard {
	var attacks Bitboard
	for _, d := range dirs {
		attacks |= walk(sq, d, occupied)
	}
	return attacks
}

func KnightAttacks(sq Square) Bitboard { return knightAttacks[sq] }
func KingAttacks(sq Square) Bitboard   { return kingAttacks[sq] }

// PawnAttacks returns the squares a pawn of color c on sq attacks.
func PawnAttacks(sq Square, c Color) Bitboard { return pawnAttacks[c][sq] }

func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return bishopMagics[sq].attacks(occupied)
}

func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return rookMagics[sq].attacks(occupied)
}

func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

// PieceAttacks returns the attack set of a non-pawn piece type.
func PieceAttacks(pt PieceType, sq Square, occupied Bitboard) Bitboard {
	switch pt {
	case Knight:
		return knightAttacks[sq]
	case Bishop:
		return BishopAttacks(sq, occupied)
	case Rook:
		return RookAttacks(sq, occupied)
	case Queen:
		return QueenAttacks(sq, occupied)
	case King:
		return kingAttacks[sq]
	}
	return Empty
}

// Between returns the squares strictly between a and b.
func Between(a, b Square) Bitboard { return betweenBB[a][b] }

// Aligned reports whether c lies on the line through a and b.
func Aligned(a, b, c Square) bool { return lineBB[a][b]&SquareBB(c) != 0 }

// AttackersByColor returns the pieces of color c attacking sq, with sliders
// seeing through everything not in occupied.
func (p *Position) AttackersByColor(sq Square, c Color, occupied Bitboard) Bitboard {
	own := &p.Pieces[c]
	return pawnAttacks[c.Other()][sq]&own[Pawn] |
		knightAttacks[sq]&own[Knight] |
		kingAttacks[sq]&own[King] |
		BishopAttacks(sq, occupied)&(own[Bishop]|own[Queen]) |
		RookAttacks(sq, occupied)&(own[Rook]|own[Queen])
}

// IsSquareAttacked reports whether color by attacks sq.
func (p *Position) IsSquareAttacked(sq Square, by Color) bool {
	return p.AttackersByColor(sq, by, p.AllOccupied) != 0
}

func (p *Position) updateCheckers() {
	us := p.SideToMove
	if p.Pieces[us][King] == 0 {
		p.Checkers = 0
		return
	}
	p.Checkers = p.AttackersByColor(p.KingSquare[us], us.Other(), p.AllOccupied)
}
