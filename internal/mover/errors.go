package mover

import (
	"errors"
	"fmt"
)

// errNoReplaceUnsupported means the filesystem offers neither a no-replace
// rename nor hard links.
var errNoReplaceUnsupported = errors.New("no-replace placement not supported")

// ErrTooManyCollisions is returned when every resolved name was taken by the
// time the file was placed.
var ErrTooManyCollisions = errors.New("destination names kept colliding")

// MoveError describes a failed relocation of one file.
type MoveError struct {
	Name string
	Dest string
	Err  error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %s to %s: %v", e.Name, e.Dest, e.Err)
}

func (e *MoveError) Unwrap() error { return e.Err }

// CrossDeviceError marks a rename that failed because source and destination
// are on different filesystems and the copy fallback also failed.
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("cross-device move %q -> %q: %v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice reports whether err came from the cross-device copy path.
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}
