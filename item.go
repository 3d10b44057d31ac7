// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package workerthread

import (
	"context"
	"errors"
)

// task is the type-erased form of a workItem, as queued.
type task interface {
	// scope returns the item's cancellation scope, nil meaning the root.
	scope() *scope
	// observed reports whether the outcome is visible to a caller.
	observed() bool
	// execute runs the callback with ctx, resolving the future, if any.
	execute(ctx context.Context) (FutureState, error)
	// abandon resolves the future as cancelled, without running the callback.
	abandon(cause error)
}

type workItem[T any] struct {
	fn     func(ctx context.Context) (T, error)
	future *Future[T]
	sc     *scope
}

func (x *workItem[T]) scope() *scope {
	return x.sc
}

func (x *workItem[T]) observed() bool {
	return x.future != nil
}

func (x *workItem[T]) execute(ctx context.Context) (state FutureState, err error) {
	var completed bool
	defer func() {
		if completed {
			return
		}
		// runtime.Goexit cannot be recovered, but the future can still be
		// resolved while it unwinds
		if r := recover(); r != nil {
			err = PanicError{Value: r}
		} else {
			err = ErrGoexit
		}
		state = FutureFailed
		var zero T
		x.future.settle(state, zero, err)
	}()

	value, err := x.fn(ctx)
	completed = true

	state = classify(ctx, err)
	switch state {
	case FutureCompleted:
		x.future.settle(state, value, nil)
	case FutureCancelled:
		cause := err
		if ctx.Err() != nil {
			cause = context.Cause(ctx)
		}
		err = newCancelledError(cause)
		var zero T
		x.future.settle(state, zero, err)
	default:
		var zero T
		x.future.settle(state, zero, err)
	}

	return state, err
}

func (x *workItem[T]) abandon(cause error) {
	var zero T
	x.future.settle(FutureCancelled, zero, newCancelledError(cause))
}

// classify maps a callback's result to a terminal state. Errors that
// indicate cancellation, including the error or cause of the callback's own
// context, map to FutureCancelled.
func classify(ctx context.Context, err error) FutureState {
	if err == nil {
		return FutureCompleted
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrCancelled) {
		return FutureCancelled
	}
	if ctxErr := ctx.Err(); ctxErr != nil && (errors.Is(err, ctxErr) || errors.Is(err, context.Cause(ctx))) {
		return FutureCancelled
	}
	return FutureFailed
}
