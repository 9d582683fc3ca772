// Package selfplay plays the engine against itself and records the games.
package selfplay

import (
	"context"
	"encoding/binary"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/hailam/negabot/internal/board"
	"github.com/hailam/negabot/internal/engine"
	"github.com/hailam/negabot/internal/storage"
)

// Game results
const (
	WhiteWins = "1-0"
	BlackWins = "0-1"
	Draw      = "1/2-1/2"
)

// Reasons a game ended
const (
	ReasonCheckmate    = "checkmate"
	ReasonStalemate    = "stalemate"
	ReasonRepetition   = "repetition"
	ReasonFiftyMoves   = "fifty-move rule"
	ReasonMaterial     = "insufficient material"
	ReasonTime         = "time forfeit"
	ReasonAdjudication = "move limit"
)

// Options configures a self-play match.
type Options struct {
	Games    int
	Parallel int // Games played at once (0 = 1)

	// RandomPlies random legal moves open every game.
	RandomPlies int
	// MaxPlies adjudicates a draw once reached (0 = 300).
	MaxPlies int
	// Seed makes the random openings reproducible (0 = random).
	Seed uint64

	// Depth limits every decision (0 = use the clock).
	Depth int
	// GameTime is each side's clock for the whole game. With GameTime zero
	// decisions are untimed and Depth defaults to 4.
	GameTime time.Duration

	// White and Black default to engine.DefaultConfig.
	White, Black         engine.Config
	WhiteName, BlackName string
}

func (o Options) withDefaults() Options {
	o.Parallel = max(o.Parallel, 1)
	if o.MaxPlies == 0 {
		o.MaxPlies = 300
	}
	if o.Depth == 0 && o.GameTime == 0 {
		o.Depth = 4
	}
	if o.White == (engine.Config{}) {
		o.White = engine.DefaultConfig()
	}
	if o.Black == (engine.Config{}) {
		o.Black = engine.DefaultConfig()
	}
	if o.WhiteName == "" {
		o.WhiteName = "negabot"
	}
	if o.BlackName == "" {
		o.BlackName = "negabot"
	}
	return o
}

// Game is a finished self-play game.
type Game struct {
	ID       uuid.UUID
	Moves    []board.Move
	SAN      []string
	Opening  int // Number of leading random plies
	Result   string
	Reason   string
	Duration time.Duration
	Started  time.Time
	white    string
	black    string
}

// Run plays opts.Games games, opts.Parallel at a time. Each game owns its
// engines; a single decision never uses more than one goroutine. When store
// is not nil every decision and game is recorded.
func Run(ctx context.Context, opts Options, store *storage.Storage) ([]Game, error) {
	opts = opts.withDefaults()
	games := make([]Game, opts.Games)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallel)
	for i := range opts.Games {
		g.Go(func() error {
			game, err := Play(ctx, opts, newRNG(opts.Seed, i), store)
			if err != nil {
				return fmt.Errorf("game %d: %w", i+1, err)
			}
			games[i] = game
			log.Info().
				Int("game", i+1).
				Str("id", game.ID.String()).
				Str("result", game.Result).
				Str("reason", game.Reason).
				Int("plies", len(game.Moves)).
				Msg("game finished")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return games, nil
}

// Intner is the source of random opening moves.
type Intner interface {
	Intn(n int) int
}

func newRNG(seed uint64, game int) Intner {
	if seed == 0 {
		return frand.New()
	}
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	binary.LittleEndian.PutUint64(key[8:], uint64(game))
	return frand.NewCustom(key[:], 64, 12)
}

// Play plays one game from the start position.
func Play(ctx context.Context, opts Options, rng Intner, store *storage.Storage) (Game, error) {
	opts = opts.withDefaults()
	var engines [2]*engine.Engine
	for c, cfg := range []engine.Config{opts.White, opts.Black} {
		e, err := engine.NewEngine(cfg)
		if err != nil {
			return Game{}, err
		}
		engines[c] = e
	}

	game := Game{
		ID:      uuid.New(),
		Started: time.Now(),
		white:   opts.WhiteName,
		black:   opts.BlackName,
	}
	pos := board.NewPosition()
	hashes := []uint64{pos.Hash}
	remaining := [2]time.Duration{opts.GameTime, opts.GameTime}

	play := func(m board.Move) {
		game.SAN = append(game.SAN, m.SAN(pos))
		game.Moves = append(game.Moves, m)
		pos.MakeMove(m)
		hashes = append(hashes, pos.Hash)
	}

	for game.Result == "" {
		if err := ctx.Err(); err != nil {
			return game, err
		}
		if result, reason, over := adjudicate(pos, hashes, len(game.Moves), opts.MaxPlies); over {
			game.Result, game.Reason = result, reason
			break
		}

		legal := pos.GenerateLegalMoves()
		if len(game.Moves) < opts.RandomPlies {
			play(legal.Get(rng.Intn(legal.Len())))
			game.Opening++
			continue
		}

		us := pos.SideToMove
		eng := engines[us]
		clock := engine.Unlimited
		if opts.GameTime > 0 {
			clock = engine.NewTurnClock(remaining[us])
		}
		eng.SetHistory(hashes[:len(hashes)-1])
		res := eng.DecideContext(ctx, pos, clock, engine.SearchLimits{Depth: opts.Depth})
		if err := ctx.Err(); err != nil {
			// An interrupted decision is a fallback, not a choice.
			return game, err
		}

		if opts.GameTime > 0 {
			remaining[us] -= res.Elapsed
			if remaining[us] <= 0 {
				game.Result, game.Reason = winner(us.Other()), ReasonTime
				break
			}
		}
		if store != nil {
			err := store.RecordDecision(storage.Decision{
				GameID:  game.ID.String(),
				Ply:     len(game.Moves),
				FEN:     pos.FEN(),
				Move:    res.Move.String(),
				Score:   res.Score,
				Depth:   res.Depth,
				Nodes:   res.Nodes,
				Budget:  res.Budget,
				Elapsed: res.Elapsed,
			})
			if err != nil {
				return game, err
			}
		}
		play(res.Move)
	}

	game.Duration = time.Since(game.Started)
	if store != nil {
		if err := store.RecordGame(game.Record()); err != nil {
			return game, err
		}
	}
	return game, nil
}

// adjudicate reports whether the game is over in pos. hashes holds every
// position of the game, pos included.
func adjudicate(pos *board.Position, hashes []uint64, plies, maxPlies int) (result, reason string, over bool) {
	switch {
	case pos.IsCheckmate():
		return winner(pos.SideToMove.Other()), ReasonCheckmate, true
	case pos.IsStalemate():
		return Draw, ReasonStalemate, true
	case pos.IsInsufficientMaterial():
		return Draw, ReasonMaterial, true
	case pos.IsFiftyMoveDraw():
		return Draw, ReasonFiftyMoves, true
	case lo.Count(hashes, pos.Hash) >= 3:
		return Draw, ReasonRepetition, true
	case plies >= maxPlies:
		return Draw, ReasonAdjudication, true
	}
	return "", "", false
}

func winner(c board.Color) string {
	if c == board.White {
		return WhiteWins
	}
	return BlackWins
}

// Record converts the game for storage.
func (g Game) Record() storage.GameRecord {
	return storage.GameRecord{
		ID:       g.ID.String(),
		White:    g.white,
		Black:    g.black,
		Result:   g.Result,
		Reason:   g.Reason,
		Moves:    lo.Map(g.Moves, func(m board.Move, _ int) string { return m.String() }),
		PGN:      g.PGN(),
		Duration: g.Duration,
		Played:   g.Started,
	}
}

// PGN renders the game in Portable Game Notation.
func (g Game) PGN() string {
	var sb strings.Builder
	tag := func(name, value string) {
		fmt.Fprintf(&sb, "[%s %q]\n", name, value)
	}
	tag("Event", "negabot self-play")
	tag("Site", "?")
	tag("Date", g.Started.Format("2006.01.02"))
	tag("Round", "-")
	tag("White", g.white)
	tag("Black", g.black)
	tag("Result", g.Result)
	tag("Termination", g.Reason)
	tag("GameId", g.ID.String())
	sb.WriteByte('\n')

	line := 0
	write := func(tok string) {
		if line > 0 && line+1+len(tok) > 79 {
			sb.WriteByte('\n')
			line = 0
		} else if line > 0 {
			sb.WriteByte(' ')
			line++
		}
		sb.WriteString(tok)
		line += len(tok)
	}
	for i, san := range g.SAN {
		if i%2 == 0 {
			write(fmt.Sprintf("%d.", i/2+1))
		}
		write(san)
	}
	write(g.Result)
	sb.WriteByte('\n')
	return sb.String()
}

// Summary aggregates the outcome of a match.
type Summary struct {
	Games     int
	WhiteWins int
	BlackWins int
	Draws     int
	ByReason  map[string]int
	AvgPlies  float64
}

// Summarize tallies games.
func Summarize(games []Game) Summary {
	s := Summary{
		Games:     len(games),
		WhiteWins: lo.CountBy(games, func(g Game) bool { return g.Result == WhiteWins }),
		BlackWins: lo.CountBy(games, func(g Game) bool { return g.Result == BlackWins }),
		Draws:     lo.CountBy(games, func(g Game) bool { return g.Result == Draw }),
		ByReason:  lo.CountValuesBy(games, func(g Game) string { return g.Reason }),
	}
	if len(games) > 0 {
		s.AvgPlies = float64(lo.SumBy(games, func(g Game) int { return len(g.Moves) })) / float64(len(games))
	}
	return s
}

// String formats the summary for the terminal.
func (s Summary) String() string {
	reasons := lo.Keys(s.ByReason)
	slices.Sort(reasons)
	parts := lo.Map(reasons, func(r string, _ int) string {
		return fmt.Sprintf("%s %d", r, s.ByReason[r])
	})
	return fmt.Sprintf("%d games: +%d -%d =%d (white perspective), avg %.1f plies; %s",
		s.Games, s.WhiteWins, s.BlackWins, s.Draws, s.AvgPlies, strings.Join(parts, ", "))
}
