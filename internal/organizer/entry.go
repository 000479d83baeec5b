package organizer

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Entry is one top-level item of the watched root seen during a scan.
// Its size is only looked up when asked for and then remembered for the
// rest of the scan.
type Entry struct {
	name string
	path string

	sized   bool
	size    int64
	sizeErr error
}

func newEntry(dir, name string) *Entry {
	return &Entry{name: name, path: filepath.Join(dir, name)}
}

// Name returns the file name as listed.
func (e *Entry) Name() string {
	return e.name
}

// Path returns the full path of the entry.
func (e *Entry) Path() string {
	return e.path
}

// Size stats the file on first use, following symlinks.
func (e *Entry) Size() (int64, error) {
	if !e.sized {
		e.sized = true
		info, err := os.Stat(e.path)
		if err != nil {
			e.sizeErr = err
		} else {
			e.size = info.Size()
		}
	}
	return e.size, e.sizeErr
}

// knownSize returns the size only if it was already queried successfully.
func (e *Entry) knownSize() (int64, bool) {
	return e.size, e.sized && e.sizeErr == nil
}

// isRegularFile reports whether a listed entry is a regular file. Symlinks are
// followed, so a link to a file counts and a link to a directory does not.
func isRegularFile(dir string, de fs.DirEntry) bool {
	t := de.Type()
	if t.IsRegular() {
		return true
	}
	if t&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, de.Name()))
	return err == nil && info.Mode().IsRegular()
}
