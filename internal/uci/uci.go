// Package uci speaks the Universal Chess Interface protocol on top of the
// engine.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/hailam/negabot/internal/board"
	"github.com/hailam/negabot/internal/engine"
	"github.com/hailam/negabot/internal/storage"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine *engine.Engine
	store  *storage.Storage

	out   io.Writer
	outMu sync.Mutex

	position *board.Position
	// Position history for repetition detection, root included.
	positionHashes []uint64
	gameID         string

	// Search state
	cancel     context.CancelFunc
	searchDone chan struct{}

	// CPU profiling
	profileFile *os.File
}

// New creates a new UCI protocol handler writing to out.
func New(eng *engine.Engine, out io.Writer) *UCI {
	u := &UCI{engine: eng, out: out}
	u.handleNewGame()
	return u
}

// SetStore makes every decision of the session recorded in s.
func (u *UCI) SetStore(s *storage.Storage) {
	u.store = s
}

// Run reads commands from in until "quit" or end of input. A search still
// running at end of input is allowed to finish.
func (u *UCI) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.send("readyok")
		case "ucinewgame":
			u.wait()
			u.handleNewGame()
		case "position":
			u.wait()
			u.handlePosition(args)
		case "go":
			u.wait()
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleQuit()
			return nil
		case "setoption":
			u.wait()
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.wait()
			u.send("%s\nFen: %s\nKey: %016x", u.position, u.position.FEN(), u.position.Hash)
		case "eval":
			score := u.engine.Evaluate(u.position)
			u.send("Evaluation: %d (%s, side to move)", score, engine.ScoreToString(score))
		case "perft":
			u.handlePerft(args)
		default:
			log.Debug().Str("cmd", cmd).Msg("unknown command")
			u.send("info string Unknown command: %s", cmd)
		}
	}

	u.wait()
	return scanner.Err()
}

func (u *UCI) send(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	cfg := engine.DefaultConfig()
	u.send("id name negabot")
	u.send("id author negabot developers")
	u.send("")
	u.send("option name Hash type spin default %d min 1 max 65536", cfg.HashMB)
	u.send("option name MaxDepth type spin default %d min 1 max %d", cfg.MaxDepth, engine.MaxPly/2)
	u.send("option name TimeDivisor type spin default %d min 1 max 1000", cfg.TimeDivisor)
	u.send("option name MobilityWeight type spin default %d min 0 max 25", cfg.MobilityWeight)
	u.send("option name Quiescence type check default %v", cfg.Quiescence)
	u.send("option name CacheDraws type check default %v", cfg.CacheDraws)
	u.send("option name Clear Hash type button")
	u.send("option name Profile type string default <empty>")
	u.send("option name CPUProfile type string default <empty>")
	u.send("uciok")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.engine.Clear()
	u.position = board.NewPosition()
	u.positionHashes = []uint64{u.position.Hash}
	u.gameID = uuid.NewString()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesIdx := lo.IndexOf(args, "moves")
	setup := args
	var moves []string
	if movesIdx >= 0 {
		setup, moves = args[:movesIdx], args[movesIdx+1:]
	}

	var pos *board.Position
	switch setup[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		var err error
		pos, err = board.ParseFEN(strings.Join(setup[1:], " "))
		if err != nil {
			log.Warn().Err(err).Msg("position")
			u.send("info string Invalid FEN: %v", err)
			return
		}
	default:
		return
	}

	hashes := []uint64{pos.Hash}
	for _, moveStr := range moves {
		move, err := board.ParseMove(moveStr, pos)
		if err != nil {
			log.Warn().Err(err).Str("move", moveStr).Msg("position")
			u.send("info string Invalid move: %s", moveStr)
			return
		}
		pos.MakeMove(move)
		hashes = append(hashes, pos.Hash)
	}

	u.position = pos
	u.positionHashes = hashes
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth     int
	Nodes     uint64
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

// handleGo starts a search with the given parameters. Exactly one
// "bestmove" line is printed per "go".
func (u *UCI) handleGo(args []string) {
	opts := parseGoOptions(args)
	clock, limits := u.clockAndLimits(opts)

	pos := u.position.Copy()
	ply := len(u.positionHashes) - 1
	gameID := u.gameID
	u.engine.SetHistory(u.positionHashes[:ply])
	u.engine.OnInfo = func(info engine.SearchInfo) {
		u.sendInfo(pos, info)
	}

	ctx, cancel := context.WithCancel(context.Background())
	u.cancel = cancel
	u.searchDone = make(chan struct{})

	go func() {
		defer close(u.searchDone)
		defer cancel()

		res := u.engine.DecideContext(ctx, pos, clock, limits)
		if res.Move == board.NoMove {
			u.send("bestmove 0000")
			return
		}
		u.send("bestmove %s", res.Move)
		u.record(gameID, ply, pos, res)
	}()
}

// parseGoOptions parses "go" command arguments.
func parseGoOptions(args []string) GoOptions {
	opts := GoOptions{}

	next := func(i *int) int {
		if *i+1 >= len(args) {
			return 0
		}
		*i++
		n, _ := strconv.Atoi(args[*i])
		return n
	}
	ms := func(i *int) time.Duration {
		return time.Duration(next(i)) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			opts.Depth = next(&i)
		case "nodes":
			opts.Nodes = uint64(max(next(&i), 0))
		case "movetime":
			opts.MoveTime = ms(&i)
		case "infinite":
			opts.Infinite = true
		case "wtime":
			opts.WTime = ms(&i)
		case "btime":
			opts.BTime = ms(&i)
		case "winc":
			opts.WInc = ms(&i)
		case "binc":
			opts.BInc = ms(&i)
		case "movestogo":
			opts.MovesToGo = next(&i)
		}
	}

	return opts
}

// clockAndLimits maps GoOptions onto the engine's clock model. The budget
// is a fixed share of the mover's remaining time; increments and movestogo
// are not used.
func (u *UCI) clockAndLimits(opts GoOptions) (engine.Clock, engine.SearchLimits) {
	limits := engine.SearchLimits{Depth: opts.Depth, Nodes: opts.Nodes}
	if opts.Infinite {
		return engine.Unlimited, engine.SearchLimits{}
	}
	if opts.MoveTime > 0 {
		limits.MoveTime = opts.MoveTime
		return engine.NewTurnClock(opts.MoveTime), limits
	}

	remaining := opts.WTime
	if u.position.SideToMove == board.Black {
		remaining = opts.BTime
	}
	if remaining > 0 {
		return engine.NewTurnClock(remaining), limits
	}
	return engine.Unlimited, limits
}

// record stores a finished decision when a store is attached.
func (u *UCI) record(gameID string, ply int, pos *board.Position, res engine.Result) {
	if u.store == nil {
		return
	}
	err := u.store.RecordDecision(storage.Decision{
		GameID:  gameID,
		Ply:     ply,
		FEN:     pos.FEN(),
		Move:    res.Move.String(),
		Score:   res.Score,
		Depth:   res.Depth,
		Nodes:   res.Nodes,
		Budget:  res.Budget,
		Elapsed: res.Elapsed,
	})
	if err != nil {
		log.Error().Err(err).Str("game", gameID).Int("ply", ply).Msg("record decision")
	}
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(pos *board.Position, info engine.SearchInfo) {
	var parts []string

	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))

	// Score
	switch {
	case info.Score > engine.MateScore-engine.MaxPly:
		parts = append(parts, fmt.Sprintf("score mate %d", (engine.MateScore-info.Score+1)/2))
	case info.Score < -engine.MateScore+engine.MaxPly:
		parts = append(parts, fmt.Sprintf("score mate %d", -(engine.MateScore+info.Score+1)/2))
	default:
		parts = append(parts, fmt.Sprintf("score cp %d", info.Score))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))

	// NPS
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}

	// Hash fullness
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}

	if pv := legalPrefix(pos, info.PV); len(pv) > 0 {
		parts = append(parts, "pv "+strings.Join(lo.Map(pv, func(m board.Move, _ int) string {
			return m.String()
		}), " "))
	}

	u.send("info %s", strings.Join(parts, " "))
}

// legalPrefix returns the longest prefix of pv that is playable from pos.
func legalPrefix(pos *board.Position, pv []board.Move) []board.Move {
	p := pos.Copy()
	for i, m := range pv {
		if !p.GenerateLegalMoves().Contains(m) {
			return pv[:i]
		}
		p.MakeMove(m)
	}
	return pv
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.cancel != nil {
		u.cancel()
	}
	u.wait()
}

// wait blocks until the running search, if any, has finished.
func (u *UCI) wait() {
	if u.searchDone != nil {
		<-u.searchDone
		u.searchDone, u.cancel = nil, nil
	}
}

// handleQuit stops the search and profiling.
func (u *UCI) handleQuit() {
	u.handleStop()
	u.stopProfile()
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	// Format: setoption name <name> [value <value>]
	var name, value string
	readingName := false
	readingValue := false

	for _, arg := range args {
		switch {
		case arg == "name" && !readingValue:
			readingName = true
		case arg == "value" && readingName:
			readingName = false
			readingValue = true
		case readingName:
			name = strings.TrimSpace(name + " " + arg)
		case readingValue:
			value = strings.TrimSpace(value + " " + arg)
		}
	}

	cfg := u.engine.Config()
	var err error
	switch strings.ToLower(name) {
	case "hash":
		cfg.HashMB, err = strconv.Atoi(value)
	case "maxdepth":
		cfg.MaxDepth, err = strconv.Atoi(value)
	case "timedivisor":
		cfg.TimeDivisor, err = strconv.Atoi(value)
	case "mobilityweight":
		cfg.MobilityWeight, err = strconv.Atoi(value)
	case "quiescence":
		cfg.Quiescence, err = strconv.ParseBool(value)
	case "cachedraws":
		cfg.CacheDraws, err = strconv.ParseBool(value)
	case "clear hash":
		u.engine.Clear()
		return
	case "profile":
		if u.store == nil {
			u.send("info string No database attached")
			return
		}
		cfg, err = u.store.LoadProfile(value)
	case "cpuprofile":
		u.setProfile(value)
		return
	default:
		u.send("info string Unknown option: %s", name)
		return
	}

	if err == nil {
		err = u.engine.SetConfig(cfg)
	}
	if err != nil {
		log.Warn().Err(err).Str("option", name).Str("value", value).Msg("setoption")
		u.send("info string Invalid value for %s: %v", name, err)
	}
}

// setProfile starts CPU profiling into path, or stops it for "" and "stop".
func (u *UCI) setProfile(path string) {
	u.stopProfile()
	if path == "" || path == "stop" {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		u.send("info string Failed to create profile: %v", err)
		return
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		u.send("info string Failed to start profile: %v", err)
		return
	}
	u.profileFile = f
	log.Info().Str("path", path).Msg("cpu profiling started")
}

func (u *UCI) stopProfile() {
	if u.profileFile == nil {
		return
	}
	pprof.StopCPUProfile()
	u.profileFile.Close()
	log.Info().Str("path", u.profileFile.Name()).Msg("cpu profile saved")
	u.profileFile = nil
}

// handlePerft runs a perft test, printing the node count below each root move.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}

	start := time.Now()
	divide := u.position.Divide(depth)
	elapsed := time.Since(start)

	moves := lo.Keys(divide)
	slices.SortFunc(moves, func(a, b board.Move) int { return strings.Compare(a.String(), b.String()) })
	var nodes uint64
	for _, m := range moves {
		u.send("%s: %d", m, divide[m])
		nodes += divide[m]
	}

	u.send("")
	u.send("Nodes: %d", nodes)
	u.send("Time: %v", elapsed)
	if elapsed > 0 {
		u.send("NPS: %.0f", float64(nodes)/elapsed.Seconds())
	}
}
