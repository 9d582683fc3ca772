package board

import "fmt"

// Move packs a move into 16 bits:
//
//	bits 0-5    from square
//	bits 6-11   to square
//	bits 12-13  promotion piece (knight, bishop, rook, queen)
//	bits 14-15  kind (normal, promotion, en passant, castling)
type Move uint16

const (
	kindNormal    Move = 0 << 14
	kindPromotion Move = 1 << 14
	kindEnPassant Move = 2 << 14
	kindCastling  Move = 3 << 14
	kindMask      Move = 3 << 14
)

// NoMove is the "no move" sentinel. It never equals a legal move because a
// legal move cannot have from == to.
const NoMove Move = 0

func NewMove(from, to Square) Move {
	return Move(from) | Move(to)<<6
}

func NewPromotion(from, to Square, promo PieceType) Move {
	return NewMove(from, to) | Move(promo-Knight)<<12 | kindPromotion
}

func NewEnPassant(from, to Square) Move {
	return NewMove(from, to) | kindEnPassant
}

// NewCastling encodes castling as the king's two-square move.
func NewCastling(from, to Square) Move {
	return NewMove(from, to) | kindCastling
}

func (m Move) From() Square { return Square(m & 0x3F) }
func (m Move) To() Square   { return Square(m >> 6 & 0x3F) }

// Promotion returns the promoted-to type; only meaningful for promotions.
func (m Move) Promotion() PieceType { return PieceType(m>>12&3) + Knight }

func (m Move) IsPromotion() bool { return m&kindMask == kindPromotion }
func (m Move) IsEnPassant() bool { return m&kindMask == kindEnPassant }
func (m Move) IsCastling() bool  { return m&kindMask == kindCastling }

// Captured returns the type of the piece m captures in pos, or NoPieceType.
func (m Move) Captured(pos *Position) PieceType {
	if m.IsEnPassant() {
		return Pawn
	}
	return pos.PieceTypeAt(m.To())
}

// Mover returns the type of the piece m moves in pos.
func (m Move) Mover(pos *Position) PieceType {
	return pos.PieceTypeAt(m.From())
}

// IsCapture reports whether m takes a piece in pos.
func (m Move) IsCapture(pos *Position) bool {
	return m.IsEnPassant() || pos.AllOccupied.Has(m.To())
}

// String returns UCI long algebraic notation, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string("nbrq"[m.Promotion()-Knight])
	}
	return s
}

// ParseMove resolves a UCI move string against the legal moves of pos.
func ParseMove(s string, pos *Position) (Move, error) {
	moves := pos.GenerateLegalMoves()
	for _, m := range moves.Slice() {
		if m.String() == s {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("illegal move %q in %s", s, pos.FEN())
}

// MoveList is a fixed-capacity move buffer that lives on the stack.
type MoveList struct {
	moves [256]Move
	n     int
}

func (ml *MoveList) Add(m Move) {
	ml.moves[ml.n] = m
	ml.n++
}

func (ml *MoveList) Len() int             { return ml.n }
func (ml *MoveList) Get(i int) Move       { return ml.moves[i] }
func (ml *MoveList) Set(i int, m Move)    { ml.moves[i] = m }
func (ml *MoveList) Swap(i, j int)        { ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i] }
func (ml *MoveList) Slice() []Move        { return ml.moves[:ml.n] }
func (ml *MoveList) Contains(m Move) bool { return ml.IndexOf(m) >= 0 }

// IndexOf returns the position of m in the list, or -1.
func (ml *MoveList) IndexOf(m Move) int {
	for i := 0; i < ml.n; i++ {
		if ml.moves[i] == m {
			return i
		}
	}
	return -1
}

// Undo is the state MakeMove cannot recompute on the way back.
type Undo struct {
	Captured       Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	Checkers       Bitboard
}
