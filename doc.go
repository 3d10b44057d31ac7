// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package workerthread implements a single-threaded executor: a dedicated
// goroutine, locked to one OS thread, that owns a native run loop and
// executes work submitted from any goroutine, serially, in submission order
// (per producer).
//
// # Submitting work
//
// Work is submitted via [Thread.Post] (fire-and-forget), [Thread.Submit] or
// [SubmitFunc] (returning a [Future]), and [Thread.Send] or [SendFunc]
// (blocking until the result is available). Submission never blocks, and
// fails with [ErrStopped] once the thread has begun stopping.
//
// # Cancellation
//
// Each submission accepts a [context.Context], which is linked to the
// thread's own lifetime. If either is cancelled before the work item runs,
// its future resolves as cancelled (see [ErrCancelled]) and the callback is
// never invoked. Cancellation of a running callback is cooperative, via the
// context it receives.
//
// # Ambient dispatch
//
// Callbacks receive a context carrying the thread's [DispatchContext], see
// [FromContext]. Code on the loop goroutine that has no context available
// may use [Current].
//
// # Run loop
//
// The run loop is a [runloop.Loop], by default the platform's native loop
// (epoll on linux, kqueue on darwin), which blocks in the kernel until woken.
// Code running on the loop may use [Thread.RunLoop] to monitor additional
// file descriptors.
package workerthread
