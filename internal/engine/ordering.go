package engine

import "github.com/hailam/negabot/internal/board"

// captureBase lifts every capture above every quiet move.
const captureBase = 1 << 20

// MoveOrderer sorts candidate moves so that alpha-beta sees likely
// refutations first.
type MoveOrderer struct {
	// priority is indexed [victim][attacker] (most valuable victim, least
	// valuable attacker).
	priority [6][6]int
}

// NewMoveOrderer builds an orderer with the capture table from cfg.
func NewMoveOrderer(cfg Config) *MoveOrderer {
	return &MoveOrderer{priority: cfg.CapturePriority}
}

// Order sorts moves in place. Captures come first, by priority; quiet moves
// follow in their original order. The sort is stable. If preferred is in
// the list it is moved to the front.
func (mo *MoveOrderer) Order(pos *board.Position, moves *board.MoveList, preferred board.Move) {
	n := moves.Len()
	var keys [256]int
	for i := 0; i < n; i++ {
		keys[i] = mo.score(pos, moves.Get(i))
	}

	// Stable insertion sort, descending by key.
	for i := 1; i < n; i++ {
		m, k := moves.Get(i), keys[i]
		j := i
		for ; j > 0 && keys[j-1] < k; j-- {
			moves.Set(j, moves.Get(j-1))
			keys[j] = keys[j-1]
		}
		moves.Set(j, m)
		keys[j] = k
	}

	if preferred == board.NoMove {
		return
	}
	if idx := moves.IndexOf(preferred); idx > 0 {
		for j := idx; j > 0; j-- {
			moves.Set(j, moves.Get(j-1))
		}
		moves.Set(0, preferred)
	}
}

func (mo *MoveOrderer) score(pos *board.Position, m board.Move) int {
	victim := m.Captured(pos)
	if victim == board.NoPieceType {
		return 0
	}
	return captureBase + mo.priority[victim][m.Mover(pos)]
}
