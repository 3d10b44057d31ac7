// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package workerthread

import (
	"sync/atomic"

	"github.com/joeycumines/go-workerthread/runloop"
)

// WakeSignal is a coalescing wake-up, registered as a source on a
// runloop.Loop. Any number of Raise calls, prior to Reset, result in at
// least one, and typically exactly one, call to the perform function, on
// the loop goroutine.
type WakeSignal struct {
	loop    runloop.Loop
	perform func()
	pending atomic.Bool
}

var _ runloop.Source = (*WakeSignal)(nil)

// NewWakeSignal returns a signal that calls perform on the loop goroutine.
// It must be registered with loop (AddSource) before it is raised.
func NewWakeSignal(loop runloop.Loop, perform func()) *WakeSignal {
	return &WakeSignal{loop: loop, perform: perform}
}

// Raise marks the signal pending. Only the call that sets the flag signals
// the source and wakes the loop.
func (x *WakeSignal) Raise() error {
	if !x.pending.CompareAndSwap(false, true) {
		return nil
	}
	if err := x.loop.Signal(x); err != nil {
		x.pending.Store(false)
		return err
	}
	if err := x.loop.WakeUp(); err != nil {
		x.pending.Store(false)
		return err
	}
	return nil
}

// Reset re-arms the signal, reporting whether it was pending. It must be
// called before the work it guards is consumed, so that a raise racing with
// consumption results in another wake.
func (x *WakeSignal) Reset() bool {
	return x.pending.Swap(false)
}

// Pending reports whether a raise has not yet been reset.
func (x *WakeSignal) Pending() bool {
	return x.pending.Load()
}

// Perform implements runloop.Source.
func (x *WakeSignal) Perform() {
	x.perform()
}
