package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/negabot/internal/board"
)

// SearchInfo contains information about a completed iteration.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// SearchLimits specifies constraints on a decision on top of the clock.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = Config.MaxDepth)
	Nodes    uint64        // Maximum nodes (0 = no limit)
	MoveTime time.Duration // Fixed budget, overrides the clock (0 = use the clock)
}

// Result describes the outcome of one decision.
type Result struct {
	Move    board.Move
	Score   int // Score of the last completed iteration
	Depth   int // Last completed depth, 0 if none completed
	Nodes   uint64
	Elapsed time.Duration
	Budget  time.Duration
}

// Engine picks moves. It owns the transposition table, which persists
// across decisions until Clear is called. An Engine runs one decision at a
// time.
type Engine struct {
	cfg     Config
	tt      *TranspositionTable
	eval    *Evaluator
	orderer *MoveOrderer

	// history holds the hashes of the positions that preceded the next
	// root, oldest first.
	history []uint64

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine from cfg.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:     cfg,
		tt:      NewTranspositionTable(cfg.HashMB),
		eval:    NewEvaluator(cfg),
		orderer: NewMoveOrderer(cfg),
	}, nil
}

// Config returns the active configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// SetConfig replaces the configuration. The transposition table is only
// reallocated, and so emptied, when HashMB changes.
func (e *Engine) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.HashMB != e.cfg.HashMB {
		e.tt = NewTranspositionTable(cfg.HashMB)
	}
	e.cfg = cfg
	e.eval = NewEvaluator(cfg)
	e.orderer = NewMoveOrderer(cfg)
	return nil
}

// SetHistory records the hashes of the game positions before the next
// position to be decided, oldest first, so the search can see repetitions.
func (e *Engine) SetHistory(hashes []uint64) {
	e.history = append(e.history[:0], hashes...)
}

// Decide returns the move to play in pos within the time allotted by clock.
// It returns board.NoMove only when pos has no legal moves.
func (e *Engine) Decide(pos *board.Position, clock Clock) board.Move {
	return e.DecideWithLimits(pos, clock, SearchLimits{}).Move
}

// DecideWithLimits is Decide with additional depth, node or fixed-time
// limits.
func (e *Engine) DecideWithLimits(pos *board.Position, clock Clock, limits SearchLimits) Result {
	return e.DecideContext(context.Background(), pos, clock, limits)
}

// DecideContext is DecideWithLimits that also returns early, with the best
// move of the last completed iteration, when ctx is cancelled.
func (e *Engine) DecideContext(ctx context.Context, pos *board.Position, clock Clock, limits SearchLimits) Result {
	moves := pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		return Result{Move: board.NoMove}
	}
	res := Result{
		Move:   moves.Get(0),
		Budget: budget(clock, limits, e.cfg.TimeDivisor),
	}

	if m, ok := mateInOne(pos, moves); ok {
		res.Move, res.Score, res.Depth = m, MateScore-1, 1
		res.Elapsed = clock.Elapsed()
		return res
	}

	s := e.newSearcher(pos, clock, res.Budget, limits.Nodes)
	s.done = ctx.Done()

	maxDepth := e.cfg.MaxDepth
	if limits.Depth > 0 {
		maxDepth = min(limits.Depth, MaxPly/2)
	}

	for depth := 1; depth <= maxDepth; depth++ {
		if s.exhausted() {
			break
		}
		score, ok := s.search(phaseMain, depth, 0, -Infinity, Infinity)
		if !ok || s.rootMove == board.NoMove {
			log.Debug().Int("depth", depth).Uint64("nodes", s.nodes).Msg("iteration aborted")
			break
		}

		res.Move, res.Score, res.Depth = s.rootMove, score, depth
		elapsed := clock.Elapsed()
		log.Debug().
			Int("depth", depth).
			Int("score", score).
			Str("move", s.rootMove.String()).
			Uint64("nodes", s.nodes).
			Dur("elapsed", elapsed).
			Msg("iteration complete")

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    score,
				Nodes:    s.nodes,
				Time:     elapsed,
				PV:       s.principalVariation(depth),
				HashFull: e.tt.HashFull(),
			})
		}

		if IsMateScore(score) {
			break
		}
	}

	res.Nodes = s.nodes
	res.Elapsed = clock.Elapsed()
	return res
}

// newSearcher prepares the state of one decision on a private copy of pos.
func (e *Engine) newSearcher(pos *board.Position, clock Clock, budget time.Duration, nodeLimit uint64) *searcher {
	history := make([]uint64, 0, len(e.history)+MaxPly)
	history = append(history, e.history...)
	return &searcher{
		pos:       pos.Copy(),
		cfg:       &e.cfg,
		tt:        e.tt,
		eval:      e.eval,
		orderer:   e.orderer,
		clock:     clock,
		budget:    budget,
		nodeLimit: nodeLimit,
		history:   append(history, pos.Hash),
	}
}

// mateInOne returns a move that checkmates immediately, if any.
func mateInOne(pos *board.Position, moves *board.MoveList) (board.Move, bool) {
	p := pos.Copy()
	for _, m := range moves.Slice() {
		undo := p.MakeMove(m)
		mate := p.IsCheckmate()
		p.UnmakeMove(m, undo)
		if mate {
			return m, true
		}
	}
	return board.NoMove, false
}

// Clear empties the transposition table and forgets the game history.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.history = e.history[:0]
}

// TT exposes the transposition table for statistics.
func (e *Engine) TT() *TranspositionTable {
	return e.tt
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) int {
	return e.eval.Evaluate(pos)
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	switch {
	case score > MateScore-MaxPly:
		return fmt.Sprintf("Mate in %d", (MateScore-score+1)/2)
	case score < -MateScore+MaxPly:
		return fmt.Sprintf("Mated in %d", (MateScore+score+1)/2)
	}
	sign := ""
	if score < 0 {
		sign, score = "-", -score
	}
	return fmt.Sprintf("%s%d.%02d", sign, score/100, score%100)
}
