// Command negabot is a chess engine. It speaks UCI on stdin/stdout by
// default, and can also benchmark itself or play matches against itself.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/negabot/internal/board"
	"github.com/hailam/negabot/internal/engine"
	"github.com/hailam/negabot/internal/selfplay"
	"github.com/hailam/negabot/internal/storage"
	"github.com/hailam/negabot/internal/uci"
)

var (
	mode        = flag.String("mode", "uci", "uci, bench or selfplay")
	dbDir       = flag.String("db", "", "database directory (\"auto\" for the platform default, empty to disable)")
	profile     = flag.String("profile", "", "load the engine config stored under this name")
	saveProfile = flag.String("save-profile", "", "store the resolved engine config under this name")
	configPath  = flag.String("config", "", "JSON engine config file")
	games       = flag.Int("games", 10, "selfplay: number of games")
	parallel    = flag.Int("parallel", 1, "selfplay: games played at once")
	randomPlies = flag.Int("random-plies", 4, "selfplay: random opening plies")
	seed        = flag.Uint64("seed", 0, "selfplay: opening seed (0 = random)")
	depth       = flag.Int("depth", 0, "bench and selfplay: fixed search depth")
	gameTime    = flag.Duration("gametime", 0, "selfplay: clock per side, e.g. 1m")
	verbose     = flag.Bool("v", false, "debug logging")
	cpuprofile  = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	flag.Parse()

	// stdout carries the UCI protocol; logs go to stderr.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("negabot")
	}
}

func run() error {
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("CPU profiling enabled")
	}

	store, err := openStore(*dbDir)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	cfg, err := resolveConfig(store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch *mode {
	case "uci":
		eng, err := engine.NewEngine(cfg)
		if err != nil {
			return err
		}
		protocol := uci.New(eng, os.Stdout)
		if store != nil {
			protocol.SetStore(store)
		}
		return protocol.Run(os.Stdin)
	case "bench":
		return bench(cfg, *depth)
	case "selfplay":
		played, err := selfplay.Run(ctx, selfplay.Options{
			Games:       *games,
			Parallel:    *parallel,
			RandomPlies: *randomPlies,
			Seed:        *seed,
			Depth:       *depth,
			GameTime:    *gameTime,
			White:       cfg,
			Black:       cfg,
			WhiteName:   profileName(),
			BlackName:   profileName(),
		}, store)
		if err != nil {
			return err
		}
		fmt.Println(selfplay.Summarize(played))
		return nil
	}
	return fmt.Errorf("unknown mode %q", *mode)
}

func openStore(dir string) (*storage.Storage, error) {
	switch dir {
	case "":
		return nil, nil
	case "auto":
		var err error
		if dir, err = storage.DefaultDir(); err != nil {
			return nil, err
		}
	}
	return storage.Open(dir)
}

// resolveConfig layers the defaults, a stored profile and a config file,
// in that order, and optionally stores the result.
func resolveConfig(store *storage.Storage) (engine.Config, error) {
	cfg := engine.DefaultConfig()
	var err error

	if *profile != "" {
		if store == nil {
			return cfg, fmt.Errorf("-profile needs -db")
		}
		if cfg, err = store.LoadProfile(*profile); err != nil {
			return cfg, err
		}
	}
	if *configPath != "" {
		if cfg, err = engine.LoadConfigOver(cfg, *configPath); err != nil {
			return cfg, err
		}
	}
	if *saveProfile != "" {
		if store == nil {
			return cfg, fmt.Errorf("-save-profile needs -db")
		}
		if err := store.SaveProfile(*saveProfile, cfg); err != nil {
			return cfg, err
		}
		log.Info().Str("profile", *saveProfile).Msg("engine config saved")
	}
	return cfg, cfg.Validate()
}

func profileName() string {
	if *profile != "" {
		return "negabot-" + *profile
	}
	return "negabot"
}

var benchFENs = []string{
	board.StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
	"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
	"8/8/4k3/8/2p5/8/B2P4/4K3 w - - 0 1",
}

// bench searches a fixed set of positions to a fixed depth and reports the
// node count, which changes only when the search does.
func bench(cfg engine.Config, depth int) error {
	if depth <= 0 {
		depth = 5
	}
	eng, err := engine.NewEngine(cfg)
	if err != nil {
		return err
	}

	var nodes uint64
	start := time.Now()
	for i, fen := range benchFENs {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			return err
		}
		eng.Clear()
		res := eng.DecideWithLimits(pos, engine.Unlimited, engine.SearchLimits{Depth: depth})
		nodes += res.Nodes
		fmt.Printf("Position %d/%d: %s  bestmove %s  score %s  nodes %d\n",
			i+1, len(benchFENs), fen, res.Move, engine.ScoreToString(res.Score), res.Nodes)
	}
	elapsed := time.Since(start)

	fmt.Println("===========================")
	fmt.Printf("Total time (ms) : %d\n", elapsed.Milliseconds())
	fmt.Printf("Nodes searched  : %d\n", nodes)
	if elapsed > 0 {
		fmt.Printf("Nodes/second    : %.0f\n", float64(nodes)/elapsed.Seconds())
	}
	return nil
}
