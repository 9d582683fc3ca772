package engine

import "github.com/hailam/negabot/internal/board"

// Evaluator scores positions statically from the side to move's point of
// view: material, piece-square bonuses and mobility of the minor and major
// pieces. It never looks for mate or draws; the search does that first.
type Evaluator struct {
	values   [6]int
	mobility int
}

// NewEvaluator builds an evaluator from the weights in cfg.
func NewEvaluator(cfg Config) *Evaluator {
	return &Evaluator{values: cfg.PieceValues, mobility: cfg.MobilityWeight}
}

// Evaluate returns the score of pos for the side to move.
func (ev *Evaluator) Evaluate(pos *board.Position) int {
	us := pos.SideToMove
	return ev.side(pos, us) - ev.side(pos, us.Other())
}

func (ev *Evaluator) side(pos *board.Position, c board.Color) int {
	score := 0
	for pt := board.Pawn; pt <= board.King; pt++ {
		for pieces := pos.Pieces[c][pt]; pieces != 0; {
			sq := pieces.PopLSB()
			score += ev.values[pt] + int(pst[pt][pstIndex(sq, c)])
			if pt != board.Pawn && pt != board.King {
				score += ev.mobility * board.PieceAttacks(pt, sq, pos.AllOccupied).PopCount()
			}
		}
	}
	return score
}
