package mover

import (
	"fmt"
	"io"
	"os"
)

// copyAcross copies src into a freshly created dst (O_EXCL, so an existing
// dst is never truncated), keeps mode and modification time, then removes src.
// Any failure removes the partial dst and leaves src in place.
func copyAcross(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	closed := false
	defer func() {
		if err != nil {
			if !closed {
				out.Close()
			}
			os.Remove(dst)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("copy data: %w", err)
	}
	if err = out.Sync(); err != nil {
		return fmt.Errorf("sync destination: %w", err)
	}
	closed = true
	if err = out.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	// best-effort; some filesystems do not store times precisely
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())

	in.Close()
	if err = os.Remove(src); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}
