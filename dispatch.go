// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package workerthread

import (
	"context"
	"runtime"
	"sync"
)

// DispatchContext is the ambient handle to a Thread, for code running on
// its loop goroutine. It is valid only on that goroutine, while the thread
// has not stopped.
type DispatchContext struct {
	thread *Thread
}

type dispatchContextKey struct{}

// dispatchRegistry maps loop goroutine ids to their DispatchContext.
var dispatchRegistry sync.Map

// FromContext returns the DispatchContext carried by ctx, which is set for
// the contexts passed to callbacks, or nil.
func FromContext(ctx context.Context) *DispatchContext {
	if ctx == nil {
		return nil
	}
	v, _ := ctx.Value(dispatchContextKey{}).(*DispatchContext)
	return v
}

// Current returns the DispatchContext of the calling goroutine, or nil if
// it is not the loop goroutine of a running Thread.
func Current() *DispatchContext {
	if v, ok := dispatchRegistry.Load(getGoroutineID()); ok {
		return v.(*DispatchContext)
	}
	return nil
}

// Thread returns the thread this context dispatches to.
func (d *DispatchContext) Thread() *Thread {
	if d == nil {
		return nil
	}
	return d.thread
}

// Valid reports whether the caller is on the loop goroutine, and the thread
// has not stopped.
func (d *DispatchContext) Valid() bool {
	return d != nil && Current() == d
}

// Post queues fn to run on the thread, after the current callback, under
// the thread's lifetime only. It may be called from any goroutine. Panics
// are recovered and logged. A nil receiver returns ErrStopped.
func (d *DispatchContext) Post(fn func()) error {
	if fn == nil {
		return ErrNilCallback
	}
	if d == nil {
		return ErrStopped
	}
	return d.thread.Post(nil, func(context.Context) { fn() })
}

// Send runs fn on the thread, blocking until it returns. If called on the
// loop goroutine, fn is run inline, ahead of anything already queued,
// including items posted earlier by the calling callback. A nil receiver
// returns ErrStopped.
func (d *DispatchContext) Send(fn func()) error {
	if fn == nil {
		return ErrNilCallback
	}
	if d == nil {
		return ErrStopped
	}
	return d.thread.Send(nil, func(context.Context) error {
		fn()
		return nil
	})
}

func (d *DispatchContext) install(ctx context.Context, goid uint64) context.Context {
	dispatchRegistry.Store(goid, d)
	return context.WithValue(ctx, dispatchContextKey{}, d)
}

func (d *DispatchContext) uninstall(goid uint64) {
	dispatchRegistry.CompareAndDelete(goid, d)
}

// getGoroutineID parses the id of the calling goroutine from its stack
// header ("goroutine 123 [running]:").
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}
