// Package engine chooses a move for a position under a time budget:
// iterative deepening over a negamax alpha-beta search with quiescence,
// MVV-LVA ordering and a transposition table that outlives single decisions.
package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/hailam/negabot/internal/board"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid engine config")

// Config holds the tunable knobs of the engine.
type Config struct {
	// HashMB sizes the transposition table.
	HashMB int `json:"hash_mb"`
	// MaxDepth caps iterative deepening.
	MaxDepth int `json:"max_depth"`
	// TimeDivisor splits the remaining clock: budget = remaining / TimeDivisor.
	TimeDivisor int `json:"time_divisor"`
	// Quiescence extends leaves with a capture-only search.
	Quiescence bool `json:"quiescence"`
	// CacheDraws stores draw scores in the transposition table. Repetition
	// draws depend on the path, so it defaults to off.
	CacheDraws bool `json:"cache_draws"`

	MobilityWeight int `json:"mobility_weight"`
	// PieceValues is indexed by board.PieceType.
	PieceValues [6]int `json:"piece_values"`
	// CapturePriority is indexed [victim][attacker].
	CapturePriority [6][6]int `json:"capture_priority"`
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		HashMB:         64,
		MaxDepth:       50,
		TimeDivisor:    40,
		Quiescence:     true,
		MobilityWeight: 5,
		PieceValues:    [6]int{100, 300, 310, 500, 900, 10000},
		CapturePriority: [6][6]int{
			//  P   N   B   R   Q   K   attacker
			{15, 14, 13, 12, 11, 10}, // P victim
			{25, 24, 23, 22, 21, 20}, // N
			{35, 34, 33, 32, 31, 30}, // B
			{45, 44, 43, 42, 41, 40}, // R
			{55, 54, 53, 52, 51, 50}, // Q
			{0, 0, 0, 0, 0, 0},       // K
		},
	}
}

// Validate reports the first out-of-range field.
func (c Config) Validate() error {
	switch {
	case c.HashMB < 1 || c.HashMB > 1<<16:
		return fmt.Errorf("%w: hash_mb %d not in [1, 65536]", ErrInvalidConfig, c.HashMB)
	case c.MaxDepth < 1 || c.MaxDepth > MaxPly/2:
		return fmt.Errorf("%w: max_depth %d not in [1, %d]", ErrInvalidConfig, c.MaxDepth, MaxPly/2)
	case c.TimeDivisor < 1:
		return fmt.Errorf("%w: time_divisor %d must be positive", ErrInvalidConfig, c.TimeDivisor)
	case c.MobilityWeight < 0:
		return fmt.Errorf("%w: mobility_weight %d is negative", ErrInvalidConfig, c.MobilityWeight)
	}
	for pt, v := range c.PieceValues[:board.King] {
		if v <= 0 {
			return fmt.Errorf("%w: %s value %d must be positive", ErrInvalidConfig, board.PieceType(pt), v)
		}
	}
	if k := c.PieceValues[board.King]; k < 0 || k > maxKingValue {
		return fmt.Errorf("%w: king value %d not in [0, %d]", ErrInvalidConfig, k, maxKingValue)
	}
	if bound := c.maxEval(); bound >= MateScore-MaxPly {
		return fmt.Errorf("%w: weights allow evaluations up to %d, must stay below %d",
			ErrInvalidConfig, bound, MateScore-MaxPly)
	}
	return nil
}

const maxKingValue = 1 << 20

// maxEval bounds |Evaluate| for any legal position: at most fifteen
// non-king pieces per side, every piece of both sides at its worst
// piece-square entry and a queen's maximum mobility. King values cancel.
func (c Config) maxEval() int {
	piece := 0
	for _, v := range c.PieceValues[:board.King] {
		piece = max(piece, v)
	}
	return 15*piece + 32*pstMax + 15*27*c.MobilityWeight
}

// LoadConfig reads a JSON config file. Fields absent from the file keep
// their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	return LoadConfigOver(DefaultConfig(), path)
}

// LoadConfigOver reads a JSON config file on top of base.
func LoadConfigOver(base Config, path string) (Config, error) {
	cfg := base
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}
