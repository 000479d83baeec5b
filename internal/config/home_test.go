package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestGetHomeWithEnvVar tests DOWNSORT_HOME env var takes precedence
func TestGetHomeWithEnvVar(t *testing.T) {
	customHome := filepath.Join(t.TempDir(), "state")
	t.Setenv(HomeEnv, customHome)

	home, err := GetHome()
	if err != nil {
		t.Fatalf("GetHome() error = %v", err)
	}
	if home != customHome {
		t.Errorf("GetHome() = %q, want %q", home, customHome)
	}
	if _, err := os.Stat(home); os.IsNotExist(err) {
		t.Errorf("Directory not created: %q", home)
	}
}

func TestResolveStateDir(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())

	cfg := DefaultConfig(t.TempDir())
	if err := cfg.ResolveStateDir(); err != nil {
		t.Fatalf("ResolveStateDir() error = %v", err)
	}
	if cfg.StateDir != os.Getenv(HomeEnv) {
		t.Errorf("StateDir = %q, want %q", cfg.StateDir, os.Getenv(HomeEnv))
	}

	explicit := filepath.Join(t.TempDir(), "explicit")
	cfg.StateDir = explicit
	if err := cfg.ResolveStateDir(); err != nil {
		t.Fatalf("ResolveStateDir() error = %v", err)
	}
	if cfg.StateDir != explicit {
		t.Errorf("explicit StateDir should be kept, got %q", cfg.StateDir)
	}
}

func TestLockPathPerRoot(t *testing.T) {
	a := DefaultConfig(t.TempDir())
	b := DefaultConfig(t.TempDir())
	a.StateDir = "/state"
	b.StateDir = "/state"

	if a.LockPath() == b.LockPath() {
		t.Error("different roots should use different lock files")
	}
	if a.LockPath() != a.LockPath() {
		t.Error("LockPath should be stable")
	}
	if filepath.Dir(a.JournalPath()) != "/state" {
		t.Errorf("JournalPath() = %q", a.JournalPath())
	}
}

func TestLockPathRelativeRoot(t *testing.T) {
	dir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PWD", dir)
	t.Cleanup(func() { os.Chdir(oldWD) })

	rel := Config{Root: "Downloads", StateDir: "/state"}
	abs := Config{Root: filepath.Join(dir, "Downloads"), StateDir: "/state"}

	if rel.LockPath() != abs.LockPath() {
		t.Errorf("relative and absolute roots should share a lock: %q vs %q", rel.LockPath(), abs.LockPath())
	}
}
