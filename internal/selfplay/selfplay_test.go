package selfplay

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/notnil/chess"
	"github.com/rs/zerolog"

	"github.com/hailam/negabot/internal/board"
	"github.com/hailam/negabot/internal/engine"
	"github.com/hailam/negabot/internal/storage"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

func fastOptions() Options {
	cfg := engine.DefaultConfig()
	cfg.HashMB = 1
	return Options{
		Games:       1,
		RandomPlies: 4,
		MaxPlies:    24,
		Seed:        42,
		Depth:       1,
		White:       cfg,
		Black:       cfg,
	}
}

func TestPlayProducesLegalGame(t *testing.T) {
	is := is.New(t)
	opts := fastOptions()

	game, err := Play(context.Background(), opts, newRNG(opts.Seed, 0), nil)
	is.NoErr(err)
	is.True(game.Result != "")
	is.True(len(game.Moves) <= opts.MaxPlies)
	is.Equal(len(game.SAN), len(game.Moves))
	is.Equal(game.Opening, opts.RandomPlies)

	pos := board.NewPosition()
	for i, m := range game.Moves {
		if !pos.GenerateLegalMoves().Contains(m) {
			t.Fatalf("ply %d: %s is illegal in %s", i, m, pos.FEN())
		}
		pos.MakeMove(m)
	}
}

func TestPGNReadsBack(t *testing.T) {
	opts := fastOptions()
	game, err := Play(context.Background(), opts, newRNG(opts.Seed, 1), nil)
	if err != nil {
		t.Fatal(err)
	}

	pgn := game.PGN()
	read, err := chess.PGN(strings.NewReader(pgn))
	if err != nil {
		t.Fatalf("PGN does not parse: %v\n%s", err, pgn)
	}
	ref := chess.NewGame(read)
	if got := len(ref.Moves()); got != len(game.Moves) {
		t.Errorf("reference reader found %d moves, want %d\n%s", got, len(game.Moves), pgn)
	}
	for i, m := range ref.Moves() {
		if got := (chess.UCINotation{}).Encode(nil, m); got != game.Moves[i].String() {
			t.Errorf("ply %d: reference %s, game %s", i, got, game.Moves[i])
			break
		}
	}
}

func TestSeededOpeningsRepeat(t *testing.T) {
	a, b := newRNG(9, 3), newRNG(9, 3)
	c := newRNG(9, 4)
	same, differs := true, false
	for range 32 {
		x, y, z := a.Intn(1000), b.Intn(1000), c.Intn(1000)
		same = same && x == y
		differs = differs || x != z
	}
	if !same {
		t.Error("equal seeds produced different sequences")
	}
	if !differs {
		t.Error("different games produced the same sequence")
	}
}

func TestAdjudicate(t *testing.T) {
	tests := []struct {
		name   string
		fen    string
		result string
		reason string
	}{
		{"white mates", "R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1", WhiteWins, ReasonCheckmate},
		{"black mates", "6k1/8/8/8/8/8/5PPP/r5K1 w - - 0 1", BlackWins, ReasonCheckmate},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", Draw, ReasonStalemate},
		{"bare kings", "8/8/4k3/8/8/3K4/8/8 w - - 0 1", Draw, ReasonMaterial},
		{"fifty moves", "8/8/4k3/8/8/R2K4/8/8 w - - 100 80", Draw, ReasonFiftyMoves},
		{"playing on", board.StartFEN, "", ""},
	}
	for _, tc := range tests {
		pos, err := board.ParseFEN(tc.fen)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		result, reason, over := adjudicate(pos, []uint64{pos.Hash}, 10, 300)
		if result != tc.result || reason != tc.reason || over != (tc.result != "") {
			t.Errorf("%s: got (%q, %q, %v), want (%q, %q)", tc.name, result, reason, over, tc.result, tc.reason)
		}
	}

	pos := board.NewPosition()
	if _, reason, _ := adjudicate(pos, []uint64{pos.Hash, 1, pos.Hash, 2, pos.Hash}, 4, 300); reason != ReasonRepetition {
		t.Errorf("threefold repetition: reason %q", reason)
	}
	if _, reason, _ := adjudicate(pos, []uint64{pos.Hash}, 300, 300); reason != ReasonAdjudication {
		t.Errorf("move limit: reason %q", reason)
	}
}

func TestRunRecordsGames(t *testing.T) {
	is := is.New(t)
	store, err := storage.Open("")
	is.NoErr(err)
	defer store.Close()

	opts := fastOptions()
	opts.Games = 4
	opts.Parallel = 2
	opts.MaxPlies = 12

	games, err := Run(context.Background(), opts, store)
	is.NoErr(err)
	is.Equal(len(games), 4)

	stats, err := store.LoadStats()
	is.NoErr(err)
	is.Equal(stats.GamesPlayed, 4)

	for _, g := range games {
		rec, err := store.Game(g.ID.String())
		is.NoErr(err)
		is.Equal(rec.Result, g.Result)

		decisions, err := store.Decisions(g.ID.String())
		is.NoErr(err)
		is.Equal(len(decisions), len(g.Moves)-g.Opening)
	}

	sum := Summarize(games)
	is.Equal(sum.Games, 4)
	is.Equal(sum.WhiteWins+sum.BlackWins+sum.Draws, 4)
	is.True(strings.Contains(sum.String(), "4 games"))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, fastOptions(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// cancelledDuring is already cancelled but reports so only after its first
// Err call, as if cancellation landed during the first decision.
type cancelledDuring struct {
	context.Context
	done  chan struct{}
	calls int
}

func newCancelledDuring() *cancelledDuring {
	done := make(chan struct{})
	close(done)
	return &cancelledDuring{Context: context.Background(), done: done}
}

func (c *cancelledDuring) Done() <-chan struct{} { return c.done }

func (c *cancelledDuring) Err() error {
	c.calls++
	if c.calls == 1 {
		return nil
	}
	return context.Canceled
}

func TestInterruptedDecisionIsNotRecorded(t *testing.T) {
	is := is.New(t)
	store, err := storage.Open("")
	is.NoErr(err)
	defer store.Close()

	opts := fastOptions()
	opts.RandomPlies = 0
	game, err := Play(newCancelledDuring(), opts, newRNG(opts.Seed, 0), store)
	is.True(errors.Is(err, context.Canceled))
	is.Equal(len(game.Moves), 0)

	decisions, err := store.Decisions(game.ID.String())
	is.NoErr(err)
	is.Equal(len(decisions), 0)

	_, err = store.Game(game.ID.String())
	is.True(errors.Is(err, storage.ErrNotFound))
}

func TestSummarize(t *testing.T) {
	is := is.New(t)
	games := []Game{
		{Result: WhiteWins, Reason: ReasonCheckmate, Moves: make([]board.Move, 10)},
		{Result: Draw, Reason: ReasonRepetition, Moves: make([]board.Move, 20)},
		{Result: Draw, Reason: ReasonRepetition, Moves: make([]board.Move, 30)},
	}
	s := Summarize(games)
	is.Equal(s.WhiteWins, 1)
	is.Equal(s.BlackWins, 0)
	is.Equal(s.Draws, 2)
	is.Equal(s.ByReason[ReasonRepetition], 2)
	is.Equal(s.AvgPlies, 20.0)
	is.Equal(Summarize(nil).AvgPlies, 0.0)
}
