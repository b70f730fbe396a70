package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the trialscope home directory
const HomeEnv = "TRIALSCOPE_HOME"

// GetHome returns the trialscope home directory
// Priority order:
//  1. TRIALSCOPE_HOME environment variable (if set)
//  2. .trialscope under the current working directory
//
// The directory is created if it doesn't exist
func GetHome() (string, error) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		home = filepath.Join(cwd, ".trialscope")
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create trialscope home directory: %w", err)
	}
	return home, nil
}

// ResolveDBPath returns the database path to open.
// With TRIALSCOPE_HOME set, a relative path keeps its file name inside that directory.
// ":memory:" and absolute paths pass through.
func (c *Config) ResolveDBPath() (string, error) {
	if c.DBPath == ":memory:" || filepath.IsAbs(c.DBPath) {
		return c.DBPath, nil
	}
	if os.Getenv(HomeEnv) == "" {
		return c.DBPath, nil
	}
	home, err := GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, filepath.Base(c.DBPath)), nil
}
