// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package runloop provides the minimal run loop capability consumed by
// [github.com/joeycumines/go-workerthread]: a loop that blocks in the kernel
// until it is woken, then performs every [Source] that was signalled.
//
// # Implementations
//
//   - Linux: epoll, woken via an eventfd registered as a read source
//   - Darwin: kqueue, woken via a non-blocking self-pipe
//   - everything else: a portable loop, woken via a buffered channel
//
// The epoll and kqueue loops also implement [IOLoop], allowing native file
// descriptor readiness callbacks to be dispatched on the loop goroutine,
// interleaved with signalled sources.
//
// # Thread Safety
//
// [Loop.Run] must be called from exactly one goroutine, which then owns the
// loop: sources are performed and I/O callbacks are invoked on it. Every other
// method is safe to call from any goroutine, including after [Loop.Close],
// after which nothing touches the released file descriptors (most methods
// fail with [ErrLoopClosed]).
package runloop
