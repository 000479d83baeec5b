package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the state directory location.
const HomeEnv = "DOWNSORT_HOME"

// GetHome returns the downsort state directory
// Priority order:
//  1. DOWNSORT_HOME environment variable (if set)
//  2. ~/.downsort
//  3. .downsort in the current working directory (fallback)
//
// The directory is created if it doesn't exist
func GetHome() (string, error) {
	if home := os.Getenv(HomeEnv); home != "" {
		if err := os.MkdirAll(home, 0755); err != nil {
			return "", fmt.Errorf("create downsort home directory: %w", err)
		}
		return home, nil
	}

	base, err := os.UserHomeDir()
	if err != nil {
		base, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
	}

	home := filepath.Join(base, ".downsort")
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create downsort home directory: %w", err)
	}

	return home, nil
}

// ResolveStateDir fills in StateDir from GetHome when it is unset.
func (c *Config) ResolveStateDir() error {
	if c.StateDir != "" {
		return os.MkdirAll(c.StateDir, 0755)
	}
	home, err := GetHome()
	if err != nil {
		return err
	}
	c.StateDir = home
	return nil
}

// LockPath returns the instance lock file for the configured root.
// Each watched root gets its own lock so two sorters never share a folder.
// The key is the absolute root, so relative and absolute spellings collide.
func (c Config) LockPath() string {
	sum := sha256.Sum256([]byte(ExpandPath(c.Root)))
	return filepath.Join(c.StateDir, "locks", hex.EncodeToString(sum[:6])+".lock")
}

// JournalPath returns the move journal database path.
func (c Config) JournalPath() string {
	return filepath.Join(c.StateDir, "journal.db")
}
