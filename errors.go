// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package workerthread

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrStopped is returned when submitting to a thread that is stopping or
	// stopped. It is also the cause of cancellations triggered by Stop.
	ErrStopped = errors.New("workerthread: thread stopped")

	// ErrQueueFull is returned when submitting to a thread whose queue has
	// reached the maximum depth, see WithMaxQueueDepth.
	ErrQueueFull = errors.New("workerthread: queue full")

	// ErrCancelled indicates a work item was cancelled. It is matched by
	// every CancelledError.
	ErrCancelled = errors.New("workerthread: cancelled")

	// ErrGoexit indicates a callback called runtime.Goexit.
	ErrGoexit = errors.New("workerthread: callback called runtime.Goexit")

	// ErrReentrant is returned by blocking operations that would deadlock if
	// called from the loop goroutine.
	ErrReentrant = errors.New("workerthread: cannot block on the loop goroutine")

	ErrNilCallback   = errors.New("workerthread: nil callback")
	ErrInvalidOption = errors.New("workerthread: invalid option")
)

// CancelledError is the error of a Future in the FutureCancelled state.
type CancelledError struct {
	// Cause is the reason for the cancellation, e.g. ErrStopped, or the
	// error of the caller's context.
	Cause error
}

func (e *CancelledError) Error() string {
	if e.Cause == nil || e.Cause == ErrCancelled {
		return ErrCancelled.Error()
	}
	return ErrCancelled.Error() + ": " + e.Cause.Error()
}

// Is matches ErrCancelled.
func (e *CancelledError) Is(target error) bool {
	return target == ErrCancelled
}

func (e *CancelledError) Unwrap() error {
	return e.Cause
}

// PanicError wraps a value recovered from a panicking callback.
type PanicError struct {
	Value any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("workerthread: callback panicked: %v", e.Value)
}

// Unwrap returns the panic value, if it is an error.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func newCancelledError(cause error) *CancelledError {
	if v, ok := cause.(*CancelledError); ok {
		return v
	}
	return &CancelledError{Cause: cause}
}
