// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build !linux && !darwin

package runloop

// New returns the native Loop for the platform, which on this platform is
// the same as [NewPortable].
func New() (Loop, error) {
	return NewPortable(), nil
}
