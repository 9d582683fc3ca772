package board

import (
	"fmt"
	"strings"
)

// CastlingRights is a 4-bit set of the remaining castling options.
type CastlingRights uint8

const (
	WhiteKingSide CastlingRights = 1 << iota
	WhiteQueenSide
	BlackKingSide
	BlackQueenSide

	NoCastling  CastlingRights = 0
	AllCastling                = WhiteKingSide | WhiteQueenSide | BlackKingSide | BlackQueenSide
)

// String returns the FEN castling field.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, ch := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(ch)
		}
	}
	return sb.String()
}

// castlingLoss[sq] are the rights lost when a piece leaves or lands on sq.
var castlingLoss [64]CastlingRights

func init() {
	castlingLoss[E1] = WhiteKingSide | WhiteQueenSide
	castlingLoss[H1] = WhiteKingSide
	castlingLoss[A1] = WhiteQueenSide
	castlingLoss[E8] = BlackKingSide | BlackQueenSide
	castlingLoss[H8] = BlackKingSide
	castlingLoss[A8] = BlackQueenSide
}

// Position is a complete game state. It is mutated in place by MakeMove and
// restored by UnmakeMove.
type Position struct {
	Pieces      [2][6]Bitboard
	Occupied    [2]Bitboard
	AllOccupied Bitboard

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	FullMoveNumber int

	Hash       uint64
	KingSquare [2]Square
	// Checkers are the enemy pieces giving check to the side to move.
	Checkers Bitboard
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

// Copy returns an independent copy.
func (p *Position) Copy() *Position {
	c := *p
	return &c
}

// PieceAt returns the piece on sq, or NoPiece.
func (p *Position) PieceAt(sq Square) Piece {
	b := SquareBB(sq)
	if p.AllOccupied&b == 0 {
		return NoPiece
	}
	c := White
	if p.Occupied[Black]&b != 0 {
		c = Black
	}
	for pt := Pawn; pt <= King; pt++ {
		if p.Pieces[c][pt]&b != 0 {
			return NewPiece(pt, c)
		}
	}
	return NoPiece
}

// PieceTypeAt returns the type of the piece on sq, or NoPieceType.
func (p *Position) PieceTypeAt(sq Square) PieceType {
	return p.PieceAt(sq).Type()
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.Checkers != 0
}

func (p *Position) put(c Color, pt PieceType, sq Square) {
	b := SquareBB(sq)
	p.Pieces[c][pt] |= b
	p.Occupied[c] |= b
	p.AllOccupied |= b
	p.Hash ^= pieceKeys[c][pt][sq]
	if pt == King {
		p.KingSquare[c] = sq
	}
}

func (p *Position) remove(c Color, pt PieceType, sq Square) {
	b := SquareBB(sq)
	p.Pieces[c][pt] &^= b
	p.Occupied[c] &^= b
	p.AllOccupied &^= b
	p.Hash ^= pieceKeys[c][pt][sq]
}

func (p *Position) shift(c Color, pt PieceType, from, to Square) {
	p.remove(c, pt, from)
	p.put(c, pt, to)
}

// pinned returns the side to move's pieces pinned against its own king.
func (p *Position) pinned() Bitboard {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]
	enemy := &p.Pieces[them]

	snipers := RookAttacks(ksq, 0)&(enemy[Rook]|enemy[Queen]) |
		BishopAttacks(ksq, 0)&(enemy[Bishop]|enemy[Queen])

	var pinned Bitboard
	for snipers != 0 {
		blockers := Between(snipers.PopLSB(), ksq) & p.AllOccupied
		if blockers.PopCount() == 1 && blockers&p.Occupied[us] != 0 {
			pinned |= blockers
		}
	}
	return pinned
}

// String draws the board followed by the FEN and hash.
func (p *Position) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			sb.WriteString(p.PieceAt(NewSquare(file, rank)).String())
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Fen: %s\nKey: %016X\n", p.FEN(), p.Hash)
	return sb.String()
}
