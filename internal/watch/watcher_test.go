package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpString(t *testing.T) {
	tests := []struct {
		op       Op
		expected string
	}{
		{Created, "created"},
		{Written, "written"},
		{Removed, "removed"},
		{Renamed, "renamed"},
		{Op(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.op.String(); got != tt.expected {
				t.Errorf("Op.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()

	w, err := New(tmpDir, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	if w.RootDir() != tmpDir {
		t.Errorf("RootDir() = %v, want %v", w.RootDir(), tmpDir)
	}
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), 0)
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

func waitFor(t *testing.T, w *Watcher, timeout time.Duration) Notification {
	t.Helper()
	select {
	case n := <-w.Events():
		return n
	case err := <-w.Errors():
		t.Fatalf("Unexpected error: %v", err)
	case <-time.After(timeout):
		t.Fatal("Timeout waiting for notification")
	}
	return Notification{}
}

func expectQuiet(t *testing.T, w *Watcher, d time.Duration) {
	t.Helper()
	select {
	case n := <-w.Events():
		t.Fatalf("Unexpected notification: %+v", n)
	case <-time.After(d):
	}
}

func TestWatcher_FileCreated(t *testing.T) {
	tmpDir := t.TempDir()

	w, err := New(tmpDir, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	testFile := filepath.Join(tmpDir, "song.mp3")
	if err := os.WriteFile(testFile, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	n := waitFor(t, w, 2*time.Second)
	if n.Path != testFile {
		t.Errorf("Notification.Path = %v, want %v", n.Path, testFile)
	}
	if n.Op != Created {
		t.Errorf("Notification.Op = %v, want %v", n.Op, Created)
	}
	if n.Count != 1 {
		t.Errorf("Notification.Count = %d, want 1", n.Count)
	}
}

func TestWatcher_CoalescesBurst(t *testing.T) {
	tmpDir := t.TempDir()

	w, err := New(tmpDir, 200*time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	for i := 0; i < 10; i++ {
		name := filepath.Join(tmpDir, "clip"+string(rune('a'+i))+".mp4")
		if err := os.WriteFile(name, []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
	}

	n := waitFor(t, w, 2*time.Second)
	if n.Count < 10 {
		t.Errorf("Notification.Count = %d, want at least 10", n.Count)
	}

	expectQuiet(t, w, 500*time.Millisecond)
}

func TestWatcher_IgnoresChmod(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "photo.png")
	if err := os.WriteFile(testFile, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	w, err := New(tmpDir, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	if err := os.Chmod(testFile, 0600); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}

	expectQuiet(t, w, 300*time.Millisecond)
}

func TestWatcher_NewSubdirectoryIsWatched(t *testing.T) {
	tmpDir := t.TempDir()

	w, err := New(tmpDir, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	subDir := filepath.Join(tmpDir, "downloaded_pdfs")
	if err := os.Mkdir(subDir, 0755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	n := waitFor(t, w, 2*time.Second)
	if n.Path != subDir {
		t.Fatalf("Notification.Path = %v, want %v", n.Path, subDir)
	}

	nested := filepath.Join(subDir, "report.pdf")
	if err := os.WriteFile(nested, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create nested file: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case n := <-w.Events():
			if n.Path == nested {
				return
			}
		case <-deadline:
			t.Fatal("No notification for file in new subdirectory")
		}
	}
}

func TestWatcher_ExistingSubdirectoriesAreWatched(t *testing.T) {
	tmpDir := t.TempDir()
	deep := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(deep, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	w, err := New(tmpDir, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	testFile := filepath.Join(deep, "part.stl")
	if err := os.WriteFile(testFile, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	n := waitFor(t, w, 2*time.Second)
	if n.Path != testFile {
		t.Errorf("Notification.Path = %v, want %v", n.Path, testFile)
	}
}

func TestWatcher_CloseIdempotent(t *testing.T) {
	w, err := New(t.TempDir(), 100*time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestWatcher_CloseDropsPending(t *testing.T) {
	tmpDir := t.TempDir()

	w, err := New(tmpDir, 300*time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "a.pdf"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	w.Close()

	expectQuiet(t, w, 500*time.Millisecond)
}
