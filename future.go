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

// FutureState is the state of a Future. Every state but FuturePending is
// terminal.
type FutureState uint32

const (
	FuturePending FutureState = iota
	FutureCompleted
	FutureCancelled
	FutureFailed
)

func (s FutureState) String() string {
	switch s {
	case FuturePending:
		return "Pending"
	case FutureCompleted:
		return "Completed"
	case FutureCancelled:
		return "Cancelled"
	case FutureFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Future is the single-assignment result of a submitted work item. It is
// resolved exactly once, by the thread, and never overwritten.
type Future[T any] struct {
	value T
	err   error
	scope *scope
	done  chan struct{}
	mu    sync.Mutex
	state atomic.Uint32
}

func newFuture[T any](scope *scope) *Future[T] {
	return &Future[T]{scope: scope, done: make(chan struct{})}
}

// Done returns a channel that is closed once the future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// State returns the current state.
func (f *Future[T]) State() FutureState {
	return FutureState(f.state.Load())
}

// Wait blocks until the future is resolved, or ctx is done, in which case
// the error is a *CancelledError, with the context's cause. A nil ctx waits
// indefinitely. Waiting does not affect the work item.
//
// The error is nil on completion, a *CancelledError (matching ErrCancelled)
// on cancellation, or the callback's own error on failure.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	var done <-chan struct{}
	if ctx != nil {
		done = ctx.Done()
	}
	select {
	case <-f.done:
	case <-done:
		select {
		case <-f.done:
		default:
			var zero T
			return zero, newCancelledError(context.Cause(ctx))
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// Value returns the result of a completed future, without blocking. The
// zero value is returned in any other state.
func (f *Future[T]) Value() (value T) {
	f.mu.Lock()
	if f.State() == FutureCompleted {
		value = f.value
	}
	f.mu.Unlock()
	return
}

// Err returns the error of a resolved future, without blocking. It returns
// nil while pending.
func (f *Future[T]) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Cancel requests cancellation of the work item. If it has not started, it
// will resolve as cancelled without running. If it is running, the
// callback's context is cancelled, and the outcome depends on the callback.
// Cancel returns false if the future was already resolved, or cancellation
// was already requested.
func (f *Future[T]) Cancel() bool {
	if f.State() != FuturePending {
		return false
	}
	return f.scope.cancel(ErrCancelled)
}

// settle resolves the future, returning false if it was already resolved.
// It is nil-safe, for work items without a future.
func (f *Future[T]) settle(state FutureState, value T, err error) bool {
	if f == nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.State() != FuturePending {
		return false
	}
	f.value = value
	f.err = err
	f.state.Store(uint32(state))
	close(f.done)
	return true
}
