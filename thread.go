// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package workerthread

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-workerthread/runloop"
	"github.com/joeycumines/logiface"
)

// Thread is a single-threaded executor. All callbacks run on one goroutine,
// locked to one OS thread for the Thread's lifetime, which blocks in a
// runloop.Loop between wake-ups.
//
// Create instances with New. A Thread must be stopped (see Stop and
// Shutdown) to release its goroutine and run loop.
type Thread struct {
	loop     runloop.Loop
	base     context.Context
	err      error
	wake     *WakeSignal
	queue    *SubmissionQueue[task]
	root     *scope
	dispatch *DispatchContext
	logger   *logiface.Logger[logiface.Event]
	limiter  *catrate.Limiter
	done     chan struct{}
	name     string

	// loop goroutine only
	batch     []task
	next      int
	goid      uint64
	executing bool

	stats    threadStats
	stopOnce sync.Once
	state    stateCell
}

// New starts a Thread, blocking until its run loop is ready to accept
// work. Failure to construct the run loop, or to register the wake source,
// is returned, and no Thread is created.
func New(opts ...Option) (*Thread, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	base, cancel := context.WithCancelCause(context.Background())

	t := &Thread{
		base:    base,
		queue:   NewSubmissionQueue[task](cfg.maxQueueDepth),
		root:    newRootScope(base, cancel),
		logger:  cfg.logger,
		limiter: cfg.limiter,
		done:    make(chan struct{}),
		name:    cfg.name,
	}
	t.dispatch = &DispatchContext{thread: t}

	ready := make(chan error, 1)
	go t.main(cfg.runLoop, ready)

	if err := <-ready; err != nil {
		cancel(err)
		return nil, err
	}

	return t, nil
}

// main is the loop goroutine.
func (t *Thread) main(factory func() (runloop.Loop, error), ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	t.goid = getGoroutineID()

	if err := t.init(factory); err != nil {
		t.state.Store(StateStopped)
		close(t.done)
		ready <- err
		return
	}

	t.base = t.dispatch.install(t.base, t.goid)

	t.state.TryTransition(StateNotStarted, StateRunning)

	defer t.teardown()

	t.logDebug("thread started", 0)
	ready <- nil

	if err := t.loop.Run(); err != nil {
		t.err = err
		t.logCritical("run loop failed", err)
	}
}

func (t *Thread) init(factory func() (runloop.Loop, error)) error {
	loop, err := factory()
	if err != nil {
		return err
	}
	if loop == nil {
		return errors.New("workerthread: run loop factory returned nil")
	}
	t.wake = NewWakeSignal(loop, t.drain)
	if err := loop.AddSource(t.wake); err != nil {
		_ = loop.Close()
		return err
	}
	t.loop = loop
	return nil
}

// drain performs a wake-up: it re-arms the wake signal, then runs every
// queued item, until the queue is empty.
func (t *Thread) drain() {
	t.wake.Reset()
	for {
		t.batch = t.queue.DrainAll(t.batch[:0])
		if len(t.batch) == 0 {
			return
		}
		t.stats.recordDrain(len(t.batch))
		for t.next = 0; t.next < len(t.batch); {
			item := t.batch[t.next]
			t.batch[t.next] = nil
			t.next++
			t.run(item)
		}
		t.batch = t.batch[:0]
		t.next = 0
	}
}

// run executes a single item, on the loop goroutine. Items whose scope is
// already cancelled are resolved without invoking their callback.
func (t *Thread) run(item task) {
	sc := item.scope()
	if sc == nil {
		sc = t.root
	}

	if err := sc.err(); err != nil {
		item.abandon(err)
		t.stats.cancelled.Add(1)
		return
	}

	ctx, release := sc.bind(t.base)
	defer release()

	executing := t.executing
	t.executing = true
	t.stats.executed.Add(1)
	state, err := item.execute(ctx)
	t.executing = executing

	t.stats.recordOutcome(state)
	if state == FutureFailed && !item.observed() {
		t.logCallbackFailure(err)
	}
}

// Stop requests that the thread stop, without waiting. It is safe to call
// from any goroutine, any number of times.
//
// Further submissions fail with ErrStopped. Queued items that have not
// started are resolved as cancelled, with cause ErrStopped, without running.
// The context of a running callback is cancelled.
func (t *Thread) Stop() {
	t.stopOnce.Do(func() {
		t.beginStop()
		_ = t.loop.RemoveSource(t.wake)
		t.loop.Stop()
	})
}

// Shutdown stops the thread, and waits for it to exit, or ctx to be done.
// A nil ctx waits indefinitely. It returns ErrReentrant (after requesting
// the stop) if called from the loop goroutine.
func (t *Thread) Shutdown(ctx context.Context) error {
	t.Stop()
	if t.IsLoopThread() {
		return ErrReentrant
	}
	var done <-chan struct{}
	if ctx != nil {
		done = ctx.Done()
	}
	select {
	case <-t.done:
		return nil
	case <-done:
		return ctx.Err()
	}
}

func (t *Thread) beginStop() {
	if t.state.TryTransition(StateRunning, StateStopping) {
		t.logDebug("thread stopping", t.queue.Len())
	}
	t.queue.Close()
	t.root.cancel(ErrStopped)
}

// teardown runs on the loop goroutine, after the run loop has exited, or
// while a callback is unwinding via runtime.Goexit.
func (t *Thread) teardown() {
	if t.executing {
		t.executing = false
		t.stats.failed.Add(1)
		if t.err == nil {
			t.err = ErrGoexit
		}
		t.logCritical("callback exited the loop goroutine", ErrGoexit)
	}

	t.beginStop()
	_ = t.loop.RemoveSource(t.wake)

	var abandoned int
	for _, item := range t.batch[t.next:] {
		if item != nil {
			item.abandon(ErrStopped)
			abandoned++
		}
	}
	t.batch = t.queue.DrainAll(t.batch[:0])
	for _, item := range t.batch {
		item.abandon(ErrStopped)
		abandoned++
	}
	clear(t.batch)
	t.batch, t.next = nil, 0
	t.stats.cancelled.Add(uint64(abandoned))

	t.dispatch.uninstall(t.goid)

	if err := t.loop.Close(); err != nil {
		t.logError("run loop close failed", err)
	}

	t.state.Store(StateStopped)
	t.logDebug("thread stopped", abandoned)
	close(t.done)
}

// Done returns a channel that is closed once the thread has stopped, and
// every submitted item has been resolved.
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

// Err returns the error that caused the thread to exit without Stop (e.g.
// a run loop fault), if any. It is only meaningful once Done is closed.
func (t *Thread) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// State returns the current lifecycle state.
func (t *Thread) State() State {
	return t.state.Load()
}

// Name returns the name used in logs.
func (t *Thread) Name() string {
	return t.name
}

// IsLoopThread reports whether the caller is running on the thread's loop
// goroutine.
func (t *Thread) IsLoopThread() bool {
	return getGoroutineID() == t.goid
}

// Dispatcher returns the thread's DispatchContext.
func (t *Thread) Dispatcher() *DispatchContext {
	return t.dispatch
}

// RunLoop returns the thread's run loop. On linux and darwin, the default
// loop implements runloop.IOLoop, which may be used to monitor file
// descriptors, with callbacks invoked on the loop goroutine.
func (t *Thread) RunLoop() runloop.Loop {
	return t.loop
}
