package config

import (
	"os"
	"path/filepath"
)

// DataDirEnv names the variable that overrides the data directory.
const DataDirEnv = "DREAM_DATA_DIR"

const appDir = "dreamcanvas"

// ResolveDataDir picks the directory holding the store and the journal:
// explicit when set, then $DREAM_DATA_DIR, then DefaultDataDir.
func ResolveDataDir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv(DataDirEnv); v != "" {
		return v
	}
	return DefaultDataDir()
}

// DefaultDataDir returns the platform data directory. $XDG_DATA_HOME wins,
// then /var/lib, then the macOS and Windows per-user locations, then a
// dotdir in the home directory. Without a home directory it is ./data.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./data"
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir)
	}
	candidates := []struct{ probe, dir string }{
		{"/var/lib", filepath.Join("/var/lib", appDir)},
		{filepath.Join(home, "Library"), filepath.Join(home, "Library", "Application Support", "DreamCanvas")},
		{filepath.Join(home, "AppData"), filepath.Join(home, "AppData", "Local", "DreamCanvas")},
	}
	for _, c := range candidates {
		if isDir(c.probe) {
			return c.dir
		}
	}
	return filepath.Join(home, "."+appDir)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
