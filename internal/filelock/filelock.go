// Package filelock guards a watched root against being sorted by two downsort
// processes at once, and provides the atomic write used for the lock's owner
// note.
package filelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process already holds the instance lock.
var ErrLocked = errors.New("another downsort instance holds the lock")

// FileLock wraps a flock file lock for coordinating access to files.
type FileLock struct {
	flock *flock.Flock
	path  string
}

// NewFileLock creates a new file lock for the given path.
// The lock file will be created at the specified path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// Path returns the lock file path.
func (fl *FileLock) Path() string {
	return fl.path
}

// TryLock attempts to acquire an exclusive lock on the file without blocking.
// Returns true if the lock was acquired, false if the lock is held by another process.
func (fl *FileLock) TryLock() (bool, error) {
	acquired, err := fl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", fl.path, err)
	}
	return acquired, nil
}

// Unlock releases the lock.
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// Owner describes the process holding an instance lock.
type Owner struct {
	PID  int
	Root string
}

func (o Owner) String() string {
	return fmt.Sprintf("pid %d watching %s", o.PID, o.Root)
}

// ownerPath is the note written next to the lock file. The lock file itself is
// never rewritten, since replacing it would detach the flock from the path.
func ownerPath(lockPath string) string {
	return lockPath + ".owner"
}

// Acquire takes the instance lock at path without blocking and records the
// current process as its owner. When the lock is held elsewhere the returned
// error wraps ErrLocked and names the owner if known.
func Acquire(path, root string) (*FileLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}

	lock := NewFileLock(path)
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !acquired {
		if owner, err := ReadOwner(path); err == nil {
			return nil, fmt.Errorf("%w (%s)", ErrLocked, owner)
		}
		return nil, ErrLocked
	}

	note := fmt.Sprintf("%d\n%s\n", os.Getpid(), root)
	if err := AtomicWrite(ownerPath(path), []byte(note)); err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("record lock owner: %w", err)
	}
	return lock, nil
}

// Release removes the owner note and unlocks.
func (fl *FileLock) Release() error {
	os.Remove(ownerPath(fl.path))
	return fl.Unlock()
}

// ReadOwner returns the owner recorded for the lock at path.
func ReadOwner(path string) (Owner, error) {
	data, err := os.ReadFile(ownerPath(path))
	if err != nil {
		return Owner{}, err
	}
	lines := strings.SplitN(strings.TrimRight(string(data), "\n"), "\n", 2)
	pid, err := strconv.Atoi(lines[0])
	if err != nil {
		return Owner{}, fmt.Errorf("parse lock owner pid: %w", err)
	}
	owner := Owner{PID: pid}
	if len(lines) > 1 {
		owner.Root = lines[1]
	}
	return owner, nil
}

// AtomicWrite writes data to a file atomically using a temp file and rename strategy.
// Readers never see a partial write; on failure the original file is unchanged.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// same directory keeps the rename on one filesystem
	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	tempFile = nil
	return nil
}
