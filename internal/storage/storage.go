package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/negabot/internal/engine"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Storage keys
const (
	keyStats          = "stats"
	prefixProfile     = "profile/"
	prefixGame        = "game/"
	prefixDecision    = "decision/"
	decisionKeyFormat = prefixDecision + "%s/%05d"
)

// Decision is one move chosen by the engine, with the numbers behind it.
type Decision struct {
	GameID  string        `json:"game_id"`
	Ply     int           `json:"ply"`
	FEN     string        `json:"fen"`
	Move    string        `json:"move"`
	Score   int           `json:"score"`
	Depth   int           `json:"depth"`
	Nodes   uint64        `json:"nodes"`
	Budget  time.Duration `json:"budget"`
	Elapsed time.Duration `json:"elapsed"`
}

// GameRecord is a finished game.
type GameRecord struct {
	ID       string        `json:"id"`
	White    string        `json:"white"`
	Black    string        `json:"black"`
	Result   string        `json:"result"` // "1-0", "0-1" or "1/2-1/2"
	Reason   string        `json:"reason"`
	Moves    []string      `json:"moves"`
	PGN      string        `json:"pgn"`
	Duration time.Duration `json:"duration"`
	Played   time.Time     `json:"played"`
}

// GameStats aggregates every recorded game.
type GameStats struct {
	GamesPlayed   int            `json:"games_played"`
	WhiteWins     int            `json:"white_wins"`
	BlackWins     int            `json:"black_wins"`
	Draws         int            `json:"draws"`
	ByReason      map[string]int `json:"by_reason"`
	TotalPlies    int            `json:"total_plies"`
	TotalPlayTime time.Duration  `json:"total_play_time"`
}

// NewGameStats returns empty game statistics
func NewGameStats() *GameStats {
	return &GameStats{ByReason: make(map[string]int)}
}

// DrawRate returns the share of drawn games as a percentage (0-100).
func (s *GameStats) DrawRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Draws) / float64(s.GamesPlayed) * 100
}

// AveragePlies returns the mean game length in plies.
func (s *GameStats) AveragePlies() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.TotalPlies) / float64(s.GamesPlayed)
}

// Storage wraps BadgerDB for engine profiles, decision logs and game
// results. It is safe for concurrent use.
type Storage struct {
	db *badger.DB
}

// Open opens the database in dir, creating it if needed. An empty dir
// opens a throwaway in-memory database.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(badgerLogger{log.With().Str("component", "badger").Logger()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", dir, err)
	}
	log.Debug().Str("dir", dir).Bool("in_memory", dir == "").Msg("storage opened")
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveProfile stores an engine configuration under name.
func (s *Storage) SaveProfile(name string, cfg engine.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.put(prefixProfile+name, cfg)
}

// LoadProfile returns the configuration stored under name, or ErrNotFound.
func (s *Storage) LoadProfile(name string) (engine.Config, error) {
	cfg := engine.DefaultConfig()
	if err := s.get(prefixProfile+name, &cfg); err != nil {
		return cfg, fmt.Errorf("profile %q: %w", name, err)
	}
	return cfg, nil
}

// Profiles lists the stored profile names in key order.
func (s *Storage) Profiles() ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixProfile)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, strings.TrimPrefix(string(it.Item().Key()), prefixProfile))
		}
		return nil
	})
	return names, err
}

// RecordDecision appends a decision to its game's log.
func (s *Storage) RecordDecision(d Decision) error {
	return s.put(fmt.Sprintf(decisionKeyFormat, d.GameID, d.Ply), d)
}

// Decisions returns the decision log of a game ordered by ply.
func (s *Storage) Decisions(gameID string) ([]Decision, error) {
	var out []Decision
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixDecision + gameID + "/")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var d Decision
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &d)
			}); err != nil {
				return err
			}
			out = append(out, d)
		}
		return nil
	})
	return out, err
}

// RecordGame stores a finished game and folds it into the statistics in
// one transaction.
func (s *Storage) RecordGame(g GameRecord) error {
	game, err := json.Marshal(g)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		stats, err := loadStats(txn)
		if err != nil {
			return err
		}

		stats.GamesPlayed++
		stats.TotalPlies += len(g.Moves)
		stats.TotalPlayTime += g.Duration
		stats.ByReason[g.Reason]++
		switch g.Result {
		case "1-0":
			stats.WhiteWins++
		case "0-1":
			stats.BlackWins++
		default:
			stats.Draws++
		}

		data, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(keyStats), data); err != nil {
			return err
		}
		return txn.Set([]byte(prefixGame+g.ID), game)
	})
	if err != nil {
		return fmt.Errorf("record game %s: %w", g.ID, err)
	}
	return nil
}

// Game returns a recorded game, or ErrNotFound.
func (s *Storage) Game(id string) (GameRecord, error) {
	var g GameRecord
	if err := s.get(prefixGame+id, &g); err != nil {
		return g, fmt.Errorf("game %s: %w", id, err)
	}
	return g, nil
}

// LoadStats loads game statistics, returns empty stats if none were recorded.
func (s *Storage) LoadStats() (*GameStats, error) {
	var stats *GameStats
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		stats, err = loadStats(txn)
		return err
	})
	return stats, err
}

func loadStats(txn *badger.Txn) (*GameStats, error) {
	stats := NewGameStats()
	item, err := txn.Get([]byte(keyStats))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return stats, nil // Use empty stats
	}
	if err != nil {
		return nil, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, stats)
	})
	if stats.ByReason == nil {
		stats.ByReason = make(map[string]int)
	}
	return stats, err
}

func (s *Storage) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (s *Storage) get(key string, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}

// badgerLogger routes badger's messages through zerolog. Badger is chatty
// at info level, so info is demoted to debug.
type badgerLogger struct{ l zerolog.Logger }

func (b badgerLogger) Errorf(f string, args ...any)   { b.l.Error().Msg(trim(f, args)) }
func (b badgerLogger) Warningf(f string, args ...any) { b.l.Warn().Msg(trim(f, args)) }
func (b badgerLogger) Infof(f string, args ...any)    { b.l.Debug().Msg(trim(f, args)) }
func (b badgerLogger) Debugf(f string, args ...any)   { b.l.Trace().Msg(trim(f, args)) }

func trim(f string, args []any) string {
	return strings.TrimSpace(fmt.Sprintf(f, args...))
}
