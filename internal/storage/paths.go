// Package storage keeps engine profiles, per-game decision logs and game
// results in a BadgerDB database.
package storage

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"
)

const appName = "negabot"

// DirEnv overrides the database location chosen by DefaultDir.
const DirEnv = "NEGABOT_DB"

// DefaultDir returns the database directory used by "-db auto", creating
// it if needed. Unless DirEnv is set it is <data dir>/negabot/db, where the
// data dir is ~/Library/Application Support on macOS, %APPDATA% on Windows
// and $XDG_DATA_HOME (or ~/.local/share) elsewhere.
func DefaultDir() (string, error) {
	dir := os.Getenv(DirEnv)
	if dir == "" {
		base, err := dataHome()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, appName, "db")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	log.Debug().Str("dir", dir).Msg("database directory")
	return dir, nil
}

func dataHome() (string, error) {
	env, fallback := "XDG_DATA_HOME", filepath.Join(".local", "share")
	switch runtime.GOOS {
	case "darwin":
		env, fallback = "", filepath.Join("Library", "Application Support")
	case "windows":
		env, fallback = "APPDATA", filepath.Join("AppData", "Roaming")
	}
	if env != "" {
		if dir := os.Getenv(env); dir != "" {
			return dir, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback), nil
}
