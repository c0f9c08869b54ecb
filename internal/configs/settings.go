package configs

import (
	"fmt"
	"os"
	"path/filepath"
)

// UserSettings holds the per-user paths condlock reads and writes.
type UserSettings struct {
	// ConfigDir holds config.toml.
	ConfigDir string
	// StateDir holds the activity history.
	StateDir string
}

// ConfigPath is the location of the user's config file.
func (s *UserSettings) ConfigPath() string {
	return filepath.Join(s.ConfigDir, "config.toml")
}

// HistoryPath is the location of the activity history.
func (s *UserSettings) HistoryPath() string {
	return filepath.Join(s.StateDir, "history.jsonl")
}

// ResolveUserSettings derives the paths from the XDG base directories,
// falling back to the platform defaults.
func ResolveUserSettings() (*UserSettings, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("error getting config directory: %w", err)
	}

	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("error getting home directory: %w", err)
		}
		stateDir = filepath.Join(homeDir, ".local", "state")
	}

	return &UserSettings{
		ConfigDir: filepath.Join(configDir, "condlock"),
		StateDir:  filepath.Join(stateDir, "condlock"),
	}, nil
}
