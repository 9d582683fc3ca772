package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"

	"github.com/hailam/negabot/internal/board"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		tweak func(*Config)
	}{
		{"zero hash", func(c *Config) { c.HashMB = 0 }},
		{"deep", func(c *Config) { c.MaxDepth = MaxPly }},
		{"zero depth", func(c *Config) { c.MaxDepth = 0 }},
		{"zero divisor", func(c *Config) { c.TimeDivisor = 0 }},
		{"negative mobility", func(c *Config) { c.MobilityWeight = -1 }},
		{"free knight", func(c *Config) { c.PieceValues[1] = 0 }},
		{"queen in the mate band", func(c *Config) { c.PieceValues[board.Queen] = 20000 }},
		{"huge mobility", func(c *Config) { c.MobilityWeight = 1000 }},
		{"negative king", func(c *Config) { c.PieceValues[board.King] = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.tweak(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
			if _, err := NewEngine(cfg); err == nil {
				t.Error("NewEngine accepted an invalid config")
			}
		})
	}
}

func TestValidWeightsStayOutOfMateBand(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.MobilityWeight = 25
	is.NoErr(cfg.Validate())
	is.True(cfg.maxEval() < MateScore-MaxPly)

	// The largest accepted evaluation survives a round trip through the
	// table in both signs.
	tt := NewTranspositionTable(1)
	for _, score := range []int{cfg.maxEval(), -cfg.maxEval()} {
		is.True(!IsMateScore(score))
		tt.Store(42, board.NoMove, 1, score, BoundExact)
		entry, found := tt.Probe(42)
		is.True(found)
		is.Equal(int(entry.Score), score)
	}

	cfg.MobilityWeight = 100
	is.True(errors.Is(cfg.Validate(), ErrInvalidConfig))
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "engine.json")
	err := os.WriteFile(path, []byte(`{"hash_mb": 8, "quiescence": false}`), 0o644)
	is.NoErr(err)

	cfg, err := LoadConfig(path)
	is.NoErr(err)
	is.Equal(cfg.HashMB, 8)
	is.Equal(cfg.Quiescence, false)
	is.Equal(cfg.TimeDivisor, DefaultConfig().TimeDivisor)
	is.Equal(cfg.PieceValues, DefaultConfig().PieceValues)
}

func TestLoadConfigOverLayers(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "engine.json")
	is.NoErr(os.WriteFile(path, []byte(`{"time_divisor": 20}`), 0o644))

	base := DefaultConfig()
	base.MaxDepth = 6
	cfg, err := LoadConfigOver(base, path)
	is.NoErr(err)
	is.Equal(cfg.MaxDepth, 6)
	is.Equal(cfg.TimeDivisor, 20)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file: expected error")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"max_depth": 500}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("max_depth 500: err = %v, want ErrInvalidConfig", err)
	}
}

func TestSetConfig(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t, nil)
	tt := e.TT()

	cfg := e.Config()
	cfg.MobilityWeight = 2
	is.NoErr(e.SetConfig(cfg))
	is.True(e.TT() == tt) // same size keeps the table

	cfg.HashMB = 1
	is.NoErr(e.SetConfig(cfg))
	is.True(e.TT() != tt)
	is.Equal(e.TT().Len(), 1<<20/ttEntrySize)

	cfg.TimeDivisor = 0
	is.True(e.SetConfig(cfg) != nil)
	is.Equal(e.Config().TimeDivisor, DefaultConfig().TimeDivisor)
}
