// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package runloop

import (
	"errors"
)

// Standard errors.
var (
	// ErrLoopClosed is returned by operations on a loop that has been closed.
	ErrLoopClosed = errors.New("runloop: loop closed")

	// ErrLoopRunning is returned when Run is called while the loop is already running.
	ErrLoopRunning = errors.New("runloop: loop is already running")

	// ErrSourceRegistered is returned when adding a source that is already registered.
	ErrSourceRegistered = errors.New("runloop: source already registered")

	// ErrSourceNotRegistered is returned when removing or signalling an unknown source.
	ErrSourceNotRegistered = errors.New("runloop: source not registered")

	// ErrNilSource is returned when a nil source is provided.
	ErrNilSource = errors.New("runloop: nil source")

	ErrFDOutOfRange        = errors.New("runloop: fd out of range")
	ErrFDAlreadyRegistered = errors.New("runloop: fd already registered")
	ErrFDNotRegistered     = errors.New("runloop: fd not registered")
)

type (
	// Source is a unit of loop-side work, performed on the loop goroutine
	// after it has been signalled (see [Loop.Signal]) and the loop has woken.
	//
	// Implementations are used as map keys, and must be comparable (pointer
	// receivers are the norm).
	Source interface {
		Perform()
	}

	// Loop models a native run loop, as a capability. Multiple signals of the
	// same source, prior to the loop observing them, coalesce into a single
	// Perform call.
	Loop interface {
		// AddSource registers src, so that it may be signalled.
		AddSource(src Source) error

		// RemoveSource unregisters src. A pending signal is discarded.
		RemoveSource(src Source) error

		// Signal marks src as pending. It does not wake the loop, see WakeUp.
		Signal(src Source) error

		// Run blocks, dispatching events and performing signalled sources,
		// until Stop is called. A Stop that happens before Run is not lost.
		Run() error

		// Stop requests that Run return, waking the loop if necessary. It
		// does not wait.
		Stop()

		// WakeUp causes a blocked (or the next) poll to return, without
		// spinning. Concurrent calls coalesce.
		WakeUp() error

		// Close releases the loop's resources. It must only be called after
		// Run has returned (or if it was never called).
		Close() error
	}

	// IOLoop is a Loop that can also dispatch file descriptor readiness.
	IOLoop interface {
		Loop

		// RegisterFD registers fd for the given events. The callback is
		// invoked on the loop goroutine.
		RegisterFD(fd int, events IOEvents, cb IOCallback) error

		// UnregisterFD stops monitoring fd. A callback may still be running
		// (or about to run) when this returns, if called off-loop.
		UnregisterFD(fd int) error

		// ModifyFD replaces the events monitored for fd.
		ModifyFD(fd int, events IOEvents) error
	}

	// IOEvents is a bit set of file descriptor readiness events.
	IOEvents uint32

	// IOCallback receives the events that fired for a registered fd.
	IOCallback func(events IOEvents)
)

const (
	// EventRead indicates the file descriptor is ready for reading.
	EventRead IOEvents = 1 << iota
	// EventWrite indicates the file descriptor is ready for writing.
	EventWrite
	// EventError indicates an error condition on the file descriptor.
	EventError
	// EventHangup indicates the peer closed its end of the connection.
	EventHangup
)

// String returns a compact representation, e.g. "read|hangup".
func (x IOEvents) String() string {
	if x == 0 {
		return "none"
	}
	var b []byte
	for _, v := range [...]struct {
		e IOEvents
		s string
	}{
		{EventRead, "read"},
		{EventWrite, "write"},
		{EventError, "error"},
		{EventHangup, "hangup"},
	} {
		if x&v.e == 0 {
			continue
		}
		if len(b) != 0 {
			b = append(b, '|')
		}
		b = append(b, v.s...)
	}
	if len(b) == 0 {
		return "unknown"
	}
	return string(b)
}
