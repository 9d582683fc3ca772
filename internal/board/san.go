package board

import "strings"

// SAN formats a legal move in standard algebraic notation, with a check or
// mate suffix. Used for PGN export of self-play games.
func (m Move) SAN(pos *Position) string {
	if m.IsCastling() {
		s := "O-O-O"
		if m.To() > m.From() {
			s = "O-O"
		}
		return s + checkSuffix(pos, m)
	}

	from, to := m.From(), m.To()
	pt := pos.PieceTypeAt(from)
	var sb strings.Builder

	if pt == Pawn {
		if m.IsCapture(pos) {
			sb.WriteByte(byte('a' + from.File()))
			sb.WriteByte('x')
		}
	} else {
		sb.WriteByte("PNBRQK"[pt])
		sb.WriteString(disambiguation(pos, m, pt))
		if m.IsCapture(pos) {
			sb.WriteByte('x')
		}
	}
	sb.WriteString(to.String())
	if m.IsPromotion() {
		sb.WriteByte('=')
		sb.WriteByte("PNBRQK"[m.Promotion()])
	}
	sb.WriteString(checkSuffix(pos, m))
	return sb.String()
}

// disambiguation returns the origin file, rank or square needed when another
// piece of the same type can also reach the destination.
func disambiguation(pos *Position, m Move, pt PieceType) string {
	from := m.From()
	var rivals []Square
	for _, other := range pos.GenerateLegalMoves().Slice() {
		if other.To() == m.To() && other.From() != from && pos.PieceTypeAt(other.From()) == pt {
			rivals = append(rivals, other.From())
		}
	}
	if len(rivals) == 0 {
		return ""
	}
	sameFile, sameRank := false, false
	for _, sq := range rivals {
		sameFile = sameFile || sq.File() == from.File()
		sameRank = sameRank || sq.Rank() == from.Rank()
	}
	switch {
	case !sameFile:
		return from.String()[:1]
	case !sameRank:
		return from.String()[1:]
	default:
		return from.String()
	}
}

func checkSuffix(pos *Position, m Move) string {
	undo := pos.MakeMove(m)
	defer pos.UnmakeMove(m, undo)
	switch {
	case !pos.InCheck():
		return ""
	case pos.HasLegalMoves():
		return "+"
	default:
		return "#"
	}
}
