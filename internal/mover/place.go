package mover

import (
	"errors"
	"io/fs"
	"os"
)

// Replaceable for tests.
var (
	renameNoReplaceFunc = renameNoReplace
	renameFunc          = os.Rename
	linkFunc            = os.Link
)

// place moves src to dst and never replaces an existing dst.
// A taken dst yields an error matching fs.ErrExist.
func place(src, dst string) error {
	err := renameNoReplaceFunc(src, dst)
	if err == nil {
		return nil
	}

	if errors.Is(err, errNoReplaceUnsupported) {
		// Last resort: check then rename. Another writer can still claim dst
		// between the two calls on filesystems without links.
		if exists(dst) {
			return &os.LinkError{Op: "rename", Old: src, New: dst, Err: fs.ErrExist}
		}
		err = renameFunc(src, dst)
		if err == nil {
			return nil
		}
	}

	if isEXDEV(err) {
		if cerr := copyAcross(src, dst); cerr != nil {
			if errors.Is(cerr, fs.ErrExist) {
				return cerr
			}
			return &CrossDeviceError{Src: src, Dst: dst, Err: cerr}
		}
		return nil
	}

	return err
}

// linkNoReplace links dst to src, which fails if dst exists, then unlinks src.
func linkNoReplace(src, dst string) error {
	if err := linkFunc(src, dst); err != nil {
		if errors.Is(err, fs.ErrExist) || isEXDEV(err) {
			return err
		}
		if isLinkUnsupported(err) {
			return errNoReplaceUnsupported
		}
		return err
	}
	if err := os.Remove(src); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}
