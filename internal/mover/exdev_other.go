//go:build !unix && !windows

package mover

func isEXDEV(err error) bool { return false }

func isLinkUnsupported(err error) bool { return true }
