// Package paths resolves the per-user directories of dqm.
//
// Resolution order:
// 1. DQM_HOME (portable root) → $DQM_HOME/{config,state,cache}
// 2. XDG env vars → $XDG_*_HOME/dqm
// 3. Platform defaults → ~/.config/dqm, ~/.local/state/dqm, ~/.cache/dqm
package paths

import (
	"os"
	"path/filepath"
)

// EnvHome relocates every dqm directory under one root.
const EnvHome = "DQM_HOME"

const appName = "dqm"

// base returns the directory for one XDG category. sub is the name used
// under DQM_HOME, env the XDG variable and fallback the path under the
// home directory.
func base(sub, env string, fallback ...string) string {
	if home := os.Getenv(EnvHome); home != "" {
		return filepath.Join(home, sub)
	}
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(append(append([]string{homeDir}, fallback...), appName)...)
}

// ConfigDir returns the directory of the global dqm.yml.
func ConfigDir() string {
	return base("config", "XDG_CONFIG_HOME", ".config")
}

// StateDir returns the directory for logs and other runtime state.
func StateDir() string {
	return base("state", "XDG_STATE_HOME", ".local", "state")
}

// CacheDir returns the directory for regenerable data.
func CacheDir() string {
	return base("cache", "XDG_CACHE_HOME", ".cache")
}

// GlobalConfigFile returns the path of the global configuration file, or ""
// when no home directory can be determined.
func GlobalConfigFile() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "dqm.yml")
}

// LogsDir returns the per-user logs directory.
func LogsDir() string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "logs")
}

// EnsureDirs creates the dqm directories if they don't exist.
func EnsureDirs() error {
	for _, dir := range []string{ConfigDir(), StateDir(), CacheDir()} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
