// Package watch turns filesystem change notifications under the watched root
// into rescan triggers.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op represents the kind of change that produced a notification
type Op int

const (
	// Created indicates a new entry was created
	Created Op = iota
	// Written indicates an entry was written to
	Written
	// Removed indicates an entry was removed
	Removed
	// Renamed indicates an entry was renamed or moved away
	Renamed
)

// String returns a human-readable representation of the operation
func (op Op) String() string {
	switch op {
	case Created:
		return "created"
	case Written:
		return "written"
	case Removed:
		return "removed"
	case Renamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// Notification reports that something under the root changed. When several
// changes are coalesced, Path and Op describe the last one and Count how many
// were folded together.
type Notification struct {
	Path  string
	Op    Op
	Time  time.Time
	Count int
}

// DefaultDebounce is the default window for coalescing bursts of changes
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a directory tree recursively
type Watcher struct {
	watcher *fsnotify.Watcher
	events  chan Notification
	errors  chan error
	done    chan struct{}
	rootDir string

	mu       sync.Mutex
	debounce time.Duration
	timer    *time.Timer
	pending  Notification
	closed   bool
}

// New starts watching rootDir and every directory below it. A debounce of 0
// emits one notification per change.
func New(rootDir string, debounce time.Duration) (*Watcher, error) {
	rootDir = filepath.Clean(rootDir)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  watcher,
		events:   make(chan Notification, 16),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
		rootDir:  rootDir,
		debounce: debounce,
	}

	if _, err := os.Stat(rootDir); err != nil {
		watcher.Close()
		return nil, err
	}
	if err := w.addRecursive(rootDir); err != nil {
		watcher.Close()
		return nil, err
	}

	go w.processEvents()

	return w, nil
}

// addRecursive adds the directory and all its subdirectories to the watcher
func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// vanished or unreadable entries are skipped, not fatal
			if os.IsNotExist(err) || os.IsPermission(err) {
				if info != nil && info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			return err
		}

		if info.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				if os.IsPermission(err) || os.IsNotExist(err) {
					return filepath.SkipDir
				}
				return err
			}
		}

		return nil
	})
}

// processEvents converts fsnotify events until the watcher is closed
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

// handleEvent processes a single fsnotify event
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				w.sendError(err)
			}
		}
	}

	var op Op
	switch {
	case event.Has(fsnotify.Create):
		op = Created
	case event.Has(fsnotify.Write):
		op = Written
	case event.Has(fsnotify.Remove):
		op = Removed
	case event.Has(fsnotify.Rename):
		op = Renamed
	default:
		// attribute-only changes never make a file sortable
		return
	}

	n := Notification{Path: path, Op: op, Time: time.Now(), Count: 1}
	if w.debounce <= 0 {
		w.send(n)
		return
	}
	w.coalesce(n)
}

// coalesce folds n into the pending notification and restarts the window.
func (w *Watcher) coalesce(n Notification) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	n.Count += w.pending.Count
	w.pending = n

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	n := w.pending
	w.pending = Notification{}
	w.timer = nil
	closed := w.closed
	w.mu.Unlock()

	if closed || n.Count == 0 {
		return
	}
	w.send(n)
}

// send delivers a notification, dropping it when the channel is full. A
// dropped notification loses nothing: a queued one already forces a rescan.
func (w *Watcher) send(n Notification) {
	select {
	case w.events <- n:
	case <-w.done:
	default:
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
		// Error channel full, drop the error
	}
}

// Events returns the channel of change notifications
func (w *Watcher) Events() <-chan Notification {
	return w.events
}

// Errors returns the channel of watcher errors
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// RootDir returns the root directory being watched
func (w *Watcher) RootDir() string {
	return w.rootDir
}

// Close stops the watcher and releases the subscription. Pending coalesced
// notifications are discarded.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	close(w.done)
	return w.watcher.Close()
}
