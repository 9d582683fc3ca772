package storage

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/hailam/negabot/internal/engine"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

func openMemory(t *testing.T) *Storage {
	t.Helper()
	s, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProfiles(t *testing.T) {
	is := is.New(t)
	s := openMemory(t)

	_, err := s.LoadProfile("blitz")
	is.True(errors.Is(err, ErrNotFound))

	cfg := engine.DefaultConfig()
	cfg.HashMB = 8
	cfg.Quiescence = false
	is.NoErr(s.SaveProfile("blitz", cfg))
	is.NoErr(s.SaveProfile("analysis", engine.DefaultConfig()))

	got, err := s.LoadProfile("blitz")
	is.NoErr(err)
	is.Equal(got, cfg)

	names, err := s.Profiles()
	is.NoErr(err)
	is.Equal(names, []string{"analysis", "blitz"})

	bad := engine.DefaultConfig()
	bad.TimeDivisor = 0
	is.True(errors.Is(s.SaveProfile("bad", bad), engine.ErrInvalidConfig))
}

func TestDecisionLog(t *testing.T) {
	is := is.New(t)
	s := openMemory(t)

	// Stored out of order, and with more than one game interleaved.
	for _, ply := range []int{2, 0, 11, 1} {
		is.NoErr(s.RecordDecision(Decision{GameID: "g1", Ply: ply, Move: "e2e4", Depth: ply + 1}))
	}
	is.NoErr(s.RecordDecision(Decision{GameID: "g10", Ply: 0, Move: "d2d4"}))

	got, err := s.Decisions("g1")
	is.NoErr(err)
	is.Equal(len(got), 4)
	for i, want := range []int{0, 1, 2, 11} {
		is.Equal(got[i].Ply, want)
	}

	other, err := s.Decisions("g10")
	is.NoErr(err)
	is.Equal(len(other), 1)
	is.Equal(other[0].Move, "d2d4")

	none, err := s.Decisions("missing")
	is.NoErr(err)
	is.Equal(len(none), 0)
}

func TestRecordGame(t *testing.T) {
	is := is.New(t)
	s := openMemory(t)

	stats, err := s.LoadStats()
	is.NoErr(err)
	is.Equal(stats.GamesPlayed, 0)
	is.Equal(stats.DrawRate(), 0.0)

	games := []GameRecord{
		{ID: "a", Result: "1-0", Reason: "checkmate", Moves: make([]string, 40), Duration: time.Second},
		{ID: "b", Result: "1/2-1/2", Reason: "repetition", Moves: make([]string, 60), Duration: time.Second},
		{ID: "c", Result: "0-1", Reason: "checkmate", Moves: make([]string, 20), Duration: time.Second},
		{ID: "d", Result: "1/2-1/2", Reason: "stalemate", Moves: make([]string, 80), Duration: time.Second},
	}
	for _, g := range games {
		is.NoErr(s.RecordGame(g))
	}

	stats, err = s.LoadStats()
	is.NoErr(err)
	is.Equal(stats.GamesPlayed, 4)
	is.Equal(stats.WhiteWins, 1)
	is.Equal(stats.BlackWins, 1)
	is.Equal(stats.Draws, 2)
	is.Equal(stats.ByReason["checkmate"], 2)
	is.Equal(stats.DrawRate(), 50.0)
	is.Equal(stats.AveragePlies(), 50.0)
	is.Equal(stats.TotalPlayTime, 4*time.Second)

	g, err := s.Game("b")
	is.NoErr(err)
	is.Equal(g.Reason, "repetition")

	_, err = s.Game("zzz")
	is.True(errors.Is(err, ErrNotFound))
}

func TestOnDiskReopen(t *testing.T) {
	is := is.New(t)
	dir := filepath.Join(t.TempDir(), "db")

	s, err := Open(dir)
	is.NoErr(err)
	is.NoErr(s.SaveProfile("default", engine.DefaultConfig()))
	is.NoErr(s.Close())

	s, err = Open(dir)
	is.NoErr(err)
	defer s.Close()
	_, err = s.LoadProfile("default")
	is.NoErr(err)
}

func TestDefaultDir(t *testing.T) {
	override := filepath.Join(t.TempDir(), "custom")
	t.Setenv(DirEnv, override)
	dir, err := DefaultDir()
	if err != nil {
		t.Fatalf("DefaultDir: %v", err)
	}
	if dir != override {
		t.Errorf("DefaultDir() = %s, want %s", dir, override)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory not created: %v", err)
	}

	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		return
	}
	t.Setenv(DirEnv, "")
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	dir, err = DefaultDir()
	if err != nil {
		t.Fatalf("DefaultDir: %v", err)
	}
	if filepath.Base(dir) != "db" || filepath.Base(filepath.Dir(dir)) != appName {
		t.Errorf("unexpected database dir %s", dir)
	}
}
