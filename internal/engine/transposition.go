package engine

import "github.com/hailam/negabot/internal/board"

// Bound tells how a stored score relates to the true value of the node.
type Bound uint8

const (
	BoundNone  Bound = iota // empty slot
	BoundExact              // score is exact
	BoundLower              // failed high: true value >= score
	BoundUpper              // failed low: true value <= score
)

func (b Bound) String() string {
	return [...]string{"none", "exact", "lower", "upper"}[b]
}

// TTEntry is one cached search result.
type TTEntry struct {
	Key   uint64
	Move  board.Move
	Score int16
	Depth int8
	Bound Bound
}

const ttEntrySize = 16

// Cutoff returns the stored score when it settles a node searched to depth
// with window (alpha, beta): the entry must be at least as deep and its
// bound must be exact or lie outside the window on the proven side.
func (e TTEntry) Cutoff(depth, alpha, beta int) (int, bool) {
	if int(e.Depth) < depth {
		return 0, false
	}
	score := int(e.Score)
	switch e.Bound {
	case BoundExact:
		return score, true
	case BoundLower:
		return score, score >= beta
	case BoundUpper:
		return score, score <= alpha
	}
	return 0, false
}

// TranspositionTable is a fixed-size, direct-mapped cache of search results
// addressed by the low bits of the position hash. A store always replaces
// the slot's previous occupant. It is not safe for concurrent use; the
// engine runs one search at a time.
type TranspositionTable struct {
	entries []TTEntry
	mask    uint64

	probes uint64
	hits   uint64
	stores uint64
}

// NewTranspositionTable allocates the largest power-of-two number of
// entries that fits in sizeMB megabytes.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	n := roundDownToPowerOf2(uint64(sizeMB) << 20 / ttEntrySize)
	if n == 0 {
		n = 1
	}
	return &TranspositionTable{
		entries: make([]TTEntry, n),
		mask:    n - 1,
	}
}

func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe returns the entry for hash if its slot holds that exact key.
// Entries from other positions sharing the slot are misses.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes++
	e := tt.entries[hash&tt.mask]
	if e.Bound == BoundNone || e.Key != hash {
		return TTEntry{}, false
	}
	tt.hits++
	return e, true
}

// Store writes a result into hash's slot, evicting whatever was there.
func (tt *TranspositionTable) Store(hash uint64, move board.Move, depth, score int, bound Bound) {
	tt.stores++
	tt.entries[hash&tt.mask] = TTEntry{
		Key:   hash,
		Move:  move,
		Score: int16(score),
		Depth: int8(depth),
		Bound: bound,
	}
}

// Clear empties the table and resets the counters.
func (tt *TranspositionTable) Clear() {
	clear(tt.entries)
	tt.probes, tt.hits, tt.stores = 0, 0, 0
}

// HashFull samples the first thousand slots and returns the used permille.
func (tt *TranspositionTable) HashFull() int {
	sample := min(len(tt.entries), 1000)
	used := 0
	for _, e := range tt.entries[:sample] {
		if e.Bound != BoundNone {
			used++
		}
	}
	return used * 1000 / sample
}

// HitRate returns the share of probes that found their key, in percent.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

// Len returns the number of slots.
func (tt *TranspositionTable) Len() int {
	return len(tt.entries)
}

// AdjustScoreToTT converts a mate score from distance-to-root into
// distance-to-node so it stays correct when the entry is reused elsewhere.
func AdjustScoreToTT(score, ply int) int {
	switch {
	case score > MateScore-MaxPly:
		return score + ply
	case score < -MateScore+MaxPly:
		return score - ply
	}
	return score
}

// AdjustScoreFromTT undoes AdjustScoreToTT for a node at ply.
func AdjustScoreFromTT(score, ply int) int {
	switch {
	case score > MateScore-MaxPly:
		return score - ply
	case score < -MateScore+MaxPly:
		return score + ply
	}
	return score
}
