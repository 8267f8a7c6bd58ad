package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default stagewatch data directory name (relative to home).
	DefaultDataDir = ".stagewatch"
	// DBFile is the SQLite UI state database filename.
	DBFile = "stagewatch.db"
	// ConfigFile is the optional dashboard configuration filename.
	ConfigFile = "config.yaml"
)

// DataDir returns the stagewatch data directory of a home directory.
func DataDir(homeDir string) string {
	return filepath.Join(homeDir, DefaultDataDir)
}

// DBPath returns the default UI state database path of a home directory.
func DBPath(homeDir string) string {
	return filepath.Join(DataDir(homeDir), DBFile)
}

// ConfigPath returns the default dashboard configuration path of a home directory.
func ConfigPath(homeDir string) string {
	return filepath.Join(DataDir(homeDir), ConfigFile)
}
