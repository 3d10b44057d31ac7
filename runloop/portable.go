// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package runloop

import (
	"sync/atomic"
)

// portableLoop is a Loop without native I/O support, blocking on a channel
// receive between wake-ups.
type portableLoop struct {
	wake     chan struct{}
	snapshot []*sourceEntry
	sources  sourceSet
	running  atomic.Bool
	stopping atomic.Bool
	closed   atomic.Bool
}

var _ Loop = (*portableLoop)(nil)

// NewPortable returns a Loop that works on every platform, but cannot
// monitor file descriptors (it does not implement [IOLoop]).
func NewPortable() Loop {
	return &portableLoop{wake: make(chan struct{}, 1)}
}

func (l *portableLoop) AddSource(src Source) error {
	if l.closed.Load() {
		return ErrLoopClosed
	}
	return l.sources.add(src)
}

func (l *portableLoop) RemoveSource(src Source) error {
	return l.sources.remove(src)
}

func (l *portableLoop) Signal(src Source) error {
	if l.closed.Load() {
		return ErrLoopClosed
	}
	return l.sources.signal(src)
}

func (l *portableLoop) Run() error {
	if l.closed.Load() {
		return ErrLoopClosed
	}
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer l.running.Store(false)

	for !l.stopping.Load() {
		<-l.wake
		if l.stopping.Load() {
			break
		}
		l.snapshot = l.sources.perform(l.snapshot)
	}

	return nil
}

func (l *portableLoop) Stop() {
	l.stopping.Store(true)
	_ = l.WakeUp()
}

func (l *portableLoop) WakeUp() error {
	if l.closed.Load() {
		return ErrLoopClosed
	}
	select {
	case l.wake <- struct{}{}:
	default:
		// already pending
	}
	return nil
}

func (l *portableLoop) Close() error {
	// the channel is never closed, so late WakeUp calls cannot panic
	l.closed.Store(true)
	return nil
}
