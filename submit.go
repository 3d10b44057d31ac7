// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package workerthread

import (
	"context"
	"errors"

	"github.com/joeycumines/go-workerthread/runloop"
)

// Post queues fn to run on the thread, returning once it is queued. The
// outcome is not observable, though panics are recovered and logged. If ctx
// is done before fn starts, fn is not called.
//
// The context passed to fn is linked to ctx and to the thread's lifetime,
// and carries the thread's DispatchContext. It is cancelled once fn returns.
func (t *Thread) Post(ctx context.Context, fn func(ctx context.Context)) error {
	if fn == nil {
		return ErrNilCallback
	}
	return t.enqueue(&workItem[struct{}]{
		fn: func(ctx context.Context) (struct{}, error) {
			fn(ctx)
			return struct{}{}, nil
		},
		sc: t.scopeFor(ctx),
	})
}

// Submit queues fn to run on the thread, returning a Future for its result.
// See SubmitFunc.
func (t *Thread) Submit(ctx context.Context, fn func(ctx context.Context) error) (*Future[struct{}], error) {
	if fn == nil {
		return nil, ErrNilCallback
	}
	return SubmitFunc(t, ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}

// Send runs fn on the thread, blocking until it returns, or ctx is done.
// See SendFunc.
func (t *Thread) Send(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return ErrNilCallback
	}
	_, err := SendFunc(t, ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// SubmitFunc queues fn to run on t, returning a Future for its result.
// Submission fails synchronously with ErrStopped (after Stop) or
// ErrQueueFull.
//
// If ctx is done, or the thread stops, before fn starts, the future
// resolves as cancelled, without fn being called. Otherwise, it resolves as
// completed (fn returned a nil error), cancelled (fn returned an error that
// indicates cancellation, e.g. its context's error), or failed (any other
// error, or a panic, see PanicError).
func SubmitFunc[T any](t *Thread, ctx context.Context, fn func(ctx context.Context) (T, error)) (*Future[T], error) {
	if fn == nil {
		return nil, ErrNilCallback
	}
	sc := t.root.child(ctx)
	f := newFuture[T](sc)
	if err := t.enqueue(&workItem[T]{fn: fn, future: f, sc: sc}); err != nil {
		return nil, err
	}
	return f, nil
}

// SendFunc runs fn on t, blocking until it returns, or ctx is done. It is
// equivalent to SubmitFunc followed by Future.Wait, except that, if called
// from the loop goroutine, fn is run inline, instead of deadlocking. An
// inline fn runs ahead of anything already queued, so it is not ordered
// after items the calling callback posted or submitted before it.
func SendFunc[T any](t *Thread, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	if fn == nil {
		var zero T
		return zero, ErrNilCallback
	}
	if t.IsLoopThread() {
		return sendInline(t, ctx, fn)
	}
	f, err := SubmitFunc(t, ctx, fn)
	if err != nil {
		var zero T
		return zero, err
	}
	return f.Wait(ctx)
}

// sendInline runs fn on the loop goroutine, nested within the current
// callback. Queued items are not drained first.
func sendInline[T any](t *Thread, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	if t.State() != StateRunning {
		t.stats.rejected.Add(1)
		var zero T
		return zero, ErrStopped
	}
	t.stats.submitted.Add(1)
	sc := t.root.child(ctx)
	f := newFuture[T](sc)
	t.run(&workItem[T]{fn: fn, future: f, sc: sc})
	return f.Wait(nil)
}

// scopeFor returns the scope for a fire-and-forget item, which only needs
// its own scope if ctx may be cancelled.
func (t *Thread) scopeFor(ctx context.Context) *scope {
	if ctx == nil || ctx.Done() == nil {
		return nil
	}
	return t.root.child(ctx)
}

func (t *Thread) enqueue(item task) error {
	if t.State() != StateRunning {
		t.stats.rejected.Add(1)
		return ErrStopped
	}
	if err := t.queue.Push(item); err != nil {
		t.stats.rejected.Add(1)
		return err
	}
	t.stats.submitted.Add(1)
	if err := t.wake.Raise(); err != nil &&
		!errors.Is(err, runloop.ErrLoopClosed) &&
		!errors.Is(err, runloop.ErrSourceNotRegistered) {
		// the item is still queued, and will be resolved by the next drain
		// or by teardown
		t.logError("wake failed", err)
	}
	return nil
}
