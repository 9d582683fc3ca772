package engine

import (
	"time"

	"github.com/hailam/negabot/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// IsMateScore reports whether score encodes a forced mate for either side.
func IsMateScore(score int) bool {
	return score > MateScore-MaxPly || score < -MateScore+MaxPly
}

// phase selects between the full-width search and its capture-only
// continuation below the nominal depth.
type phase uint8

const (
	phaseMain phase = iota
	phaseQuiescence
)

// searcher is the state of one decision: the borrowed position, the path
// of position hashes for repetition detection and the time budget. The
// transposition table is shared with the engine and outlives it.
type searcher struct {
	pos     *board.Position
	cfg     *Config
	tt      *TranspositionTable
	eval    *Evaluator
	orderer *MoveOrderer

	clock     Clock
	budget    time.Duration
	nodeLimit uint64
	done      <-chan struct{}

	// history holds the hash of every position from the start of the game
	// up to and including the current node.
	history []uint64
	nodes   uint64

	// rootMove and rootScore are the best root move of the iteration in
	// progress. The driver only trusts them once the iteration completes.
	rootMove  board.Move
	rootScore int
}

// exhausted polls the cancellation sources. It runs before every sibling.
func (s *searcher) exhausted() bool {
	select {
	case <-s.done:
		return true
	default:
	}
	if s.nodeLimit > 0 && s.nodes >= s.nodeLimit {
		return true
	}
	return s.clock.Elapsed() >= s.budget
}

// search is negamax with fail-soft alpha-beta. It returns the score of the
// current position for the side to move and false if the budget ran out
// before the node finished, in which case the score must be ignored.
func (s *searcher) search(ph phase, depth, ply, alpha, beta int) (int, bool) {
	s.nodes++
	pos := s.pos
	root := ply == 0

	if ph == phaseMain && depth <= 0 {
		if !s.cfg.Quiescence {
			return s.leaf(ply), true
		}
		ph = phaseQuiescence
	}
	if ph == phaseQuiescence {
		depth = 0
	}

	if !root && s.isDraw() {
		if s.cfg.CacheDraws {
			s.tt.Store(pos.Hash, board.NoMove, depth, 0, BoundExact)
		}
		return 0, true
	}
	if ply >= MaxPly-1 {
		return s.eval.Evaluate(pos), true
	}

	preferred := board.NoMove
	if entry, found := s.tt.Probe(pos.Hash); found {
		preferred = entry.Move
		if !root {
			entry.Score = int16(AdjustScoreFromTT(int(entry.Score), ply))
			if score, ok := entry.Cutoff(depth, alpha, beta); ok {
				return score, true
			}
		}
	}

	alphaOrig := alpha
	best := -Infinity
	var moves *board.MoveList

	// In check there is no stand pat; every evasion is searched.
	if ph == phaseQuiescence && !pos.InCheck() {
		standPat := s.eval.Evaluate(pos)
		if standPat >= beta {
			return standPat, true
		}
		alpha = max(alpha, standPat)
		best = standPat
		moves = pos.GenerateCaptures()
	} else {
		moves = pos.GenerateLegalMoves()
		if moves.Len() == 0 {
			score := 0
			if pos.InCheck() {
				score = -MateScore + ply
			}
			s.tt.Store(pos.Hash, board.NoMove, depth, AdjustScoreToTT(score, ply), BoundExact)
			return score, true
		}
	}

	s.orderer.Order(pos, moves, preferred)

	bestMove := board.NoMove
	for _, m := range moves.Slice() {
		if s.exhausted() {
			return best, false
		}

		undo := pos.MakeMove(m)
		s.history = append(s.history, pos.Hash)
		score, ok := s.search(ph, depth-1, ply+1, -beta, -alpha)
		s.history = s.history[:len(s.history)-1]
		pos.UnmakeMove(m, undo)
		if !ok {
			return best, false
		}
		score = -score

		if score > best {
			best, bestMove = score, m
			if root {
				s.rootMove, s.rootScore = m, score
			}
		}
		alpha = max(alpha, best)
		if alpha >= beta {
			break
		}
	}

	bound := BoundExact
	switch {
	case best <= alphaOrig:
		bound = BoundUpper
	case best >= beta:
		bound = BoundLower
	}
	s.tt.Store(pos.Hash, bestMove, depth, AdjustScoreToTT(best, ply), bound)
	return best, true
}

// leaf scores a depth-zero node when quiescence is disabled.
func (s *searcher) leaf(ply int) int {
	pos := s.pos
	if !pos.HasLegalMoves() {
		if pos.InCheck() {
			return -MateScore + ply
		}
		return 0
	}
	if ply > 0 && s.isDraw() {
		return 0
	}
	return s.eval.Evaluate(pos)
}

// isDraw covers the fifty-move rule, dead material and repetition of any
// earlier position with the same side to move since the last irreversible
// move.
func (s *searcher) isDraw() bool {
	pos := s.pos
	if pos.IsInsufficientMaterial() || pos.IsFiftyMoveDraw() {
		return true
	}
	last := len(s.history) - 1
	for i := last - 2; i >= 0 && i >= last-pos.HalfMoveClock; i -= 2 {
		if s.history[i] == pos.Hash {
			return true
		}
	}
	return false
}

// principalVariation follows best moves through the table from the root.
func (s *searcher) principalVariation(maxLen int) []board.Move {
	var pv []board.Move
	var undos []board.Undo
	seen := make(map[uint64]bool)
	for len(pv) < maxLen && !seen[s.pos.Hash] {
		seen[s.pos.Hash] = true
		entry, ok := s.tt.Probe(s.pos.Hash)
		if !ok || entry.Move == board.NoMove || !s.pos.GenerateLegalMoves().Contains(entry.Move) {
			break
		}
		pv = append(pv, entry.Move)
		undos = append(undos, s.pos.MakeMove(entry.Move))
	}
	for i := len(pv) - 1; i >= 0; i-- {
		s.pos.UnmakeMove(pv[i], undos[i])
	}
	return pv
}
