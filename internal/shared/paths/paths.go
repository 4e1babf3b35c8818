package paths

import (
	"os"
	"path/filepath"
)

// GetDataDir returns the directory holding the database and other runtime
// files. Overridable with LISTINGBOT_DATA for packaged installs.
func GetDataDir() string {
	if dir := os.Getenv("LISTINGBOT_DATA"); dir != "" {
		return dir
	}
	return "./data"
}

// GetDBPath returns the sqlite database location.
func GetDBPath() string {
	if p := os.Getenv("LISTINGBOT_DB"); p != "" {
		return p
	}
	return filepath.Join(GetDataDir(), "listingbot.db")
}

// EnsureDataDirs creates the data directory tree if missing.
func EnsureDataDirs() error {
	return os.MkdirAll(GetDataDir(), 0755)
}
