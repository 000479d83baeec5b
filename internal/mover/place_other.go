//go:build !linux

package mover

func renameNoReplace(src, dst string) error {
	return linkNoReplace(src, dst)
}
