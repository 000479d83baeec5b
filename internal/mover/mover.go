// Package mover relocates single files into destination folders without ever
// overwriting an existing file.
//
// Placement prefers an atomic no-replace primitive (renameat2 with
// RENAME_NOREPLACE on Linux, hard link + unlink elsewhere), so a name taken
// between Resolve and the move is detected and a fresh name is resolved.
// Filesystems supporting neither fall back to check-then-rename, where that
// race window remains. Cross-device moves copy into an exclusively created
// file and then remove the source.
package mover

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/harrison/downsort/internal/logger"
)

// maxPlaceAttempts bounds re-resolution when names keep getting taken.
const maxPlaceAttempts = 100

// Outcome is the result of one move attempt.
type Outcome struct {
	Source    string
	Proposed  string
	Dest      string
	FinalName string
	Err       error
}

// OK reports whether the move succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Renamed reports whether a collision forced a different final name.
func (o Outcome) Renamed() bool {
	return o.OK() && o.FinalName != o.Proposed
}

// Path returns the final destination path of a successful move.
func (o Outcome) Path() string {
	return filepath.Join(o.Dest, o.FinalName)
}

// Mover moves files and reports each outcome to its logger.
type Mover struct {
	logger logger.Logger

	// beforePlace runs just before each placement attempt (tests use it to
	// simulate a concurrent writer).
	beforePlace func(dst string)
}

// New creates a Mover. A nil logger discards output.
func New(log logger.Logger) *Mover {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Mover{logger: log}
}

// MoveInto relocates src into dir under proposed, or under a collision-free
// variant of it when proposed is taken. Failures are logged and returned in
// the Outcome; MoveInto never panics and never overwrites.
func (m *Mover) MoveInto(dir, src, proposed string) Outcome {
	out := Outcome{Source: src, Proposed: proposed, Dest: dir}

	final := proposed
	if exists(filepath.Join(dir, proposed)) {
		final = Resolve(dir, proposed)
	}

	var err error
	for attempt := 0; attempt < maxPlaceAttempts; attempt++ {
		dst := filepath.Join(dir, final)
		if m.beforePlace != nil {
			m.beforePlace(dst)
		}

		err = place(src, dst)
		if err == nil || !errors.Is(err, fs.ErrExist) {
			break
		}

		m.logger.Debugf("Name %s was taken in %s before the move, resolving again", final, dir)
		final = Resolve(dir, proposed)
	}

	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			err = fmt.Errorf("%w after %d attempts", ErrTooManyCollisions, maxPlaceAttempts)
		}
		out.Err = &MoveError{Name: proposed, Dest: dir, Err: err}
		m.logger.Errorf("Error moving file %s: %v", proposed, err)
		return out
	}

	out.FinalName = final
	m.logger.Infof("Moved file: %s to %s", final, dir)
	return out
}
