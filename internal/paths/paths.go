// Package paths resolves where peek keeps its config, settings database and
// trace output.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// EnvHome overrides the base directory.
const EnvHome = "PEEK_HOME"

// Home returns the base directory: $PEEK_HOME, else ~/.config/peek, else
// ./.peek when no home directory is known.
func Home() string {
	if dir := os.Getenv(EnvHome); dir != "" {
		return Expand(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".peek"
	}
	return filepath.Join(home, ".config", "peek")
}

// ConfigFile is the user config path.
func ConfigFile() string { return filepath.Join(Home(), "config.yaml") }

// SettingsDB is the default settings store path.
func SettingsDB() string { return filepath.Join(Home(), "settings.db") }

// TracesFile is the default file exporter output.
func TracesFile() string { return filepath.Join(Home(), "traces", "traces.jsonl") }

// Expand replaces a leading ~ with the home directory and cleans the path.
func Expand(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if p == "" {
		return p
	}
	return filepath.Clean(p)
}
