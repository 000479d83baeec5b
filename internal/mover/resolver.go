package mover

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SplitName splits name into stem and extension. Leading dots belong to the
// stem, so ".env" and "notes" both have an empty extension.
func SplitName(name string) (stem, ext string) {
	ext = filepath.Ext(strings.TrimLeft(name, "."))
	return strings.TrimSuffix(name, ext), ext
}

// Resolve returns a name that does not exist in dir at the moment of the check.
// The proposed name is returned unchanged when free; otherwise stem(1)ext,
// stem(2)ext, ... are tried in order and the first free one is returned.
//
// The check and a later move are not atomic; Mover closes that window with a
// no-replace placement and re-resolves when it loses the race.
func Resolve(dir, proposed string) string {
	if !exists(filepath.Join(dir, proposed)) {
		return proposed
	}
	stem, ext := SplitName(proposed)
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s(%d)%s", stem, counter, ext)
		if !exists(filepath.Join(dir, candidate)) {
			return candidate
		}
	}
}

// exists treats any entry, including a dangling symlink, as taken.
func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
