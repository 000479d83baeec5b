package filelock

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFileLock(t *testing.T) {
	tmpDir := t.TempDir()
	lockPath := filepath.Join(tmpDir, "test.lock")

	lock := NewFileLock(lockPath)
	if lock == nil {
		t.Fatal("NewFileLock should not return nil")
	}

	if lock.Path() != lockPath {
		t.Errorf("Expected lock path %s, got %s", lockPath, lock.Path())
	}
}

func TestTryLock(t *testing.T) {
	tmpDir := t.TempDir()
	lockPath := filepath.Join(tmpDir, "test.lock")

	lock1 := NewFileLock(lockPath)
	lock2 := NewFileLock(lockPath)

	acquired, err := lock1.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if !acquired {
		t.Fatal("First TryLock should succeed")
	}

	// Second lock should fail (already locked)
	acquired, err = lock2.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if acquired {
		t.Error("Second TryLock should fail when lock is held")
	}

	if err := lock1.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	acquired, err = lock2.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if !acquired {
		t.Error("TryLock should succeed after unlock")
	}

	lock2.Unlock()
}

func TestAcquireRecordsOwner(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "locks", "abc.lock")

	lock, err := Acquire(lockPath, "/home/me/Downloads")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lock.Release()

	owner, err := ReadOwner(lockPath)
	if err != nil {
		t.Fatalf("ReadOwner failed: %v", err)
	}
	if owner.PID != os.Getpid() {
		t.Errorf("Expected pid %d, got %d", os.Getpid(), owner.PID)
	}
	if owner.Root != "/home/me/Downloads" {
		t.Errorf("Expected root /home/me/Downloads, got %q", owner.Root)
	}
}

func TestAcquireHeldElsewhere(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "abc.lock")

	first, err := Acquire(lockPath, "/dl")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer first.Release()

	_, err = Acquire(lockPath, "/dl")
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("Expected ErrLocked, got %v", err)
	}
	if !strings.Contains(err.Error(), "watching /dl") {
		t.Errorf("Expected owner in error, got %q", err.Error())
	}
}

func TestReleaseAllowsReacquire(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "abc.lock")

	first, err := Acquire(lockPath, "/dl")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	if _, err := os.Stat(ownerPath(lockPath)); !os.IsNotExist(err) {
		t.Errorf("Owner note should be removed on release, stat err = %v", err)
	}

	second, err := Acquire(lockPath, "/dl")
	if err != nil {
		t.Fatalf("Reacquire failed: %v", err)
	}
	second.Release()
}

func TestReadOwnerMissing(t *testing.T) {
	_, err := ReadOwner(filepath.Join(t.TempDir(), "none.lock"))
	if !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestAtomicWrite(t *testing.T) {
	tmpDir := t.TempDir()
	targetPath := filepath.Join(tmpDir, "test.txt")

	content := []byte("Hello, World!")
	if err := AtomicWrite(targetPath, content); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	readContent, err := os.ReadFile(targetPath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(readContent) != string(content) {
		t.Errorf("Expected content %q, got %q", string(content), string(readContent))
	}
}

func TestAtomicWriteOverwrite(t *testing.T) {
	tmpDir := t.TempDir()
	targetPath := filepath.Join(tmpDir, "test.txt")

	if err := os.WriteFile(targetPath, []byte("Initial content"), 0644); err != nil {
		t.Fatalf("Failed to write initial file: %v", err)
	}

	newContent := []byte("New content")
	if err := AtomicWrite(targetPath, newContent); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	readContent, err := os.ReadFile(targetPath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(readContent) != string(newContent) {
		t.Errorf("Expected content %q, got %q", string(newContent), string(readContent))
	}
}

func TestAtomicWriteNoTempFileLeftBehind(t *testing.T) {
	tmpDir := t.TempDir()
	targetPath := filepath.Join(tmpDir, "test.txt")

	if err := AtomicWrite(targetPath, []byte("Test content")); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("Failed to read directory: %v", err)
	}

	// Should only have the target file, no temp files
	if len(entries) != 1 {
		var files []string
		for _, entry := range entries {
			files = append(files, entry.Name())
		}
		t.Fatalf("Expected only 1 file, found %d: %v", len(entries), files)
	}
	if entries[0].Name() != "test.txt" {
		t.Errorf("Expected file test.txt, got %s", entries[0].Name())
	}
}
