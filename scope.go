// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package workerthread

import (
	"context"
	"sync"
	"sync/atomic"
)

// scope is a node in the cancellation tree. Cancellation is observed lazily,
// by walking the ancestors, so cancelling the root never fans out.
//
// The root scope's ctx is the thread's base context, cancelled by Stop.
// Other scopes carry the caller's context, if it may be cancelled.
type scope struct {
	parent *scope
	ctx    context.Context
	cause  error
	// active cancels the execution context while the item is running
	active    context.CancelCauseFunc
	mu        sync.Mutex
	cancelled atomic.Bool
}

func newRootScope(ctx context.Context, cancel context.CancelCauseFunc) *scope {
	return &scope{ctx: ctx, active: cancel}
}

func (x *scope) child(ctx context.Context) *scope {
	if ctx != nil && ctx.Done() == nil {
		ctx = nil
	}
	return &scope{parent: x, ctx: ctx}
}

// err returns the cause of the nearest cancellation, or nil.
func (x *scope) err() error {
	for s := x; s != nil; s = s.parent {
		if s.cancelled.Load() {
			s.mu.Lock()
			cause := s.cause
			s.mu.Unlock()
			return cause
		}
		if s.ctx != nil && s.ctx.Err() != nil {
			return context.Cause(s.ctx)
		}
	}
	return nil
}

// cancel marks this scope (and therefore every descendant) cancelled,
// returning false if it already was.
func (x *scope) cancel(cause error) bool {
	if cause == nil {
		cause = ErrCancelled
	}
	x.mu.Lock()
	if x.cancelled.Load() {
		x.mu.Unlock()
		return false
	}
	x.cause = cause
	x.cancelled.Store(true)
	active := x.active
	x.mu.Unlock()
	if active != nil {
		active(cause)
	}
	return true
}

// bind derives the context a work item runs with, from base (the root's
// context), linking every non-root scope between x and the root. The
// returned release func must be called once the item has finished.
func (x *scope) bind(base context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(base)

	var stops []func() bool
	for s := x; s != nil && s.parent != nil; s = s.parent {
		if s.ctx != nil {
			callerCtx := s.ctx
			stops = append(stops, context.AfterFunc(callerCtx, func() {
				cancel(context.Cause(callerCtx))
			}))
		}
	}

	x.mu.Lock()
	if x.cancelled.Load() {
		cancel(x.cause)
	} else if x.parent != nil {
		x.active = cancel
	}
	x.mu.Unlock()

	return ctx, func() {
		for _, stop := range stops {
			stop()
		}
		if x.parent != nil {
			x.mu.Lock()
			x.active = nil
			x.mu.Unlock()
		}
		cancel(nil)
	}
}
