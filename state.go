// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package workerthread

import (
	"sync/atomic"
)

// State is the lifecycle state of a Thread.
//
//	StateNotStarted -> StateRunning   [New, once the run loop is ready]
//	StateRunning    -> StateStopping  [Stop, or a run loop fault]
//	StateStopping   -> StateStopped   [teardown complete]
//
// StateStopped is terminal.
type State uint64

const (
	StateNotStarted State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// stateCell is a CAS state machine, padded to avoid false sharing with the
// fields around it.
type stateCell struct { // betteralign:ignore
	_ [sizeOfCacheLine]byte //nolint:unused
	v atomic.Uint64
	_ [sizeOfCacheLine - sizeOfAtomicUint64]byte //nolint:unused
}

func (s *stateCell) Load() State {
	return State(s.v.Load())
}

// Store must only be used for the terminal state.
func (s *stateCell) Store(state State) {
	s.v.Store(uint64(state))
}

func (s *stateCell) TryTransition(from, to State) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}
