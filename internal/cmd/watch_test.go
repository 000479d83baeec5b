package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/downsort/internal/config"
	"github.com/harrison/downsort/internal/filelock"
	"github.com/harrison/downsort/internal/journal"
)

func watchConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.DefaultConfig(t.TempDir())
	cfg.StateDir = t.TempDir()
	cfg.Debounce = 50 * time.Millisecond
	return cfg
}

func eventually(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("%s never appeared", path)
}

func TestWatchRoot_SortsExistingAndNewFiles(t *testing.T) {
	cfg := watchConfig(t)
	writeFile(t, cfg.Root, "existing.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- watchRoot(ctx, cfg, nil)
	}()

	// the initial scan runs once the watcher is live
	eventually(t, filepath.Join(cfg.Path(config.DestDocument), "existing.pdf"))

	writeFile(t, cfg.Root, "arrived.jpg")
	eventually(t, filepath.Join(cfg.Path(config.DestImage), "arrived.jpg"))

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watchRoot did not return after cancel")
	}

	j, err := journal.Open(cfg.JournalPath())
	require.NoError(t, err)
	defer j.Close()
	counts, err := j.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Succeeded)
}

func TestWatchRoot_NoInitialScan(t *testing.T) {
	cfg := watchConfig(t)
	cfg.InitialScan = false
	cfg.Journal = false
	writeFile(t, cfg.Root, "waiting.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- watchRoot(ctx, cfg, nil)
	}()

	// destinations are created before the watcher starts
	eventually(t, cfg.Path(config.DestSolidWorks))
	time.Sleep(300 * time.Millisecond)
	assert.FileExists(t, filepath.Join(cfg.Root, "waiting.pdf"))

	cancel()
	require.NoError(t, <-errCh)
	assert.NoFileExists(t, cfg.JournalPath())
}

func TestWatchRoot_SecondInstanceRefused(t *testing.T) {
	cfg := watchConfig(t)

	lock, err := filelock.Acquire(cfg.LockPath(), cfg.Root)
	require.NoError(t, err)
	defer lock.Release()

	err = watchRoot(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, filelock.ErrLocked))
}
