// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build linux || darwin

package runloop

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// pollLoop is an IOLoop backed by epoll (linux) or kqueue (darwin), woken
// via an eventfd or a self-pipe, registered like any other fd.
type pollLoop struct {
	poller      poller
	snapshot    []*sourceEntry
	sources     sourceSet
	fdMu        sync.RWMutex
	wakeR       int
	wakeW       int
	wakePending atomic.Bool
	running     atomic.Bool
	stopping    atomic.Bool
	closed      atomic.Bool
}

type fdEntry struct {
	callback IOCallback
	events   IOEvents
}

var _ IOLoop = (*pollLoop)(nil)

// New returns the native Loop for the platform. On linux and darwin, the
// returned value also implements [IOLoop].
func New() (Loop, error) {
	l := new(pollLoop)
	if err := l.poller.init(); err != nil {
		return nil, fmt.Errorf(`runloop: poller init: %w`, err)
	}
	var err error
	l.wakeR, l.wakeW, err = newWakeFD()
	if err != nil {
		_ = l.poller.close()
		return nil, fmt.Errorf(`runloop: wake fd: %w`, err)
	}
	if err := l.poller.register(l.wakeR, EventRead, l.drainWake); err != nil {
		l.closeFDs()
		return nil, fmt.Errorf(`runloop: register wake fd: %w`, err)
	}
	return l, nil
}

func (l *pollLoop) AddSource(src Source) error {
	if l.closed.Load() {
		return ErrLoopClosed
	}
	return l.sources.add(src)
}

func (l *pollLoop) RemoveSource(src Source) error {
	return l.sources.remove(src)
}

func (l *pollLoop) Signal(src Source) error {
	if l.closed.Load() {
		return ErrLoopClosed
	}
	return l.sources.signal(src)
}

func (l *pollLoop) Run() error {
	if l.closed.Load() {
		return ErrLoopClosed
	}
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer l.running.Store(false)

	for !l.stopping.Load() {
		if err := l.poll(); err != nil {
			return err
		}
		if l.stopping.Load() {
			break
		}
		l.snapshot = l.sources.perform(l.snapshot)
	}

	return nil
}

// poll must not hold fdMu, as WakeUp needs it to unblock the wait.
func (l *pollLoop) poll() error {
	if err := l.poller.wait(-1); err != nil {
		return fmt.Errorf(`runloop: poll: %w`, err)
	}
	return nil
}

func (l *pollLoop) Stop() {
	l.stopping.Store(true)
	_ = l.WakeUp()
}

func (l *pollLoop) WakeUp() error {
	if l.closed.Load() {
		return ErrLoopClosed
	}
	if !l.wakePending.CompareAndSwap(false, true) {
		return nil
	}

	l.fdMu.RLock()
	defer l.fdMu.RUnlock()
	if l.closed.Load() {
		return ErrLoopClosed
	}

	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	for {
		_, err := unix.Write(l.wakeW, buf[:])
		switch {
		case err == nil, errors.Is(err, unix.EAGAIN):
			// a full eventfd counter or pipe still wakes the poller
			return nil
		case errors.Is(err, unix.EINTR):
			continue
		default:
			l.wakePending.Store(false)
			return fmt.Errorf(`runloop: wake: %w`, err)
		}
	}
}

// drainWake runs on the loop goroutine, as the callback for the wake fd.
func (l *pollLoop) drainWake(IOEvents) {
	var buf [64]byte
	for {
		n, err := unix.Read(l.wakeR, buf[:])
		if err == unix.EINTR {
			continue
		}
		if err != nil || n <= 0 {
			break
		}
	}
	l.wakePending.Store(false)
}

func (l *pollLoop) RegisterFD(fd int, events IOEvents, cb IOCallback) error {
	if fd < 0 || fd > math.MaxInt32 {
		return ErrFDOutOfRange
	}
	if cb == nil {
		return errors.New(`runloop: nil fd callback`)
	}
	l.fdMu.RLock()
	defer l.fdMu.RUnlock()
	if l.closed.Load() {
		return ErrLoopClosed
	}
	return l.poller.register(fd, events, cb)
}

func (l *pollLoop) UnregisterFD(fd int) error {
	if fd < 0 || fd > math.MaxInt32 {
		return ErrFDOutOfRange
	}
	if fd == l.wakeR {
		return ErrFDNotRegistered
	}
	l.fdMu.RLock()
	defer l.fdMu.RUnlock()
	if l.closed.Load() {
		return ErrLoopClosed
	}
	return l.poller.unregister(fd)
}

func (l *pollLoop) ModifyFD(fd int, events IOEvents) error {
	if fd < 0 || fd > math.MaxInt32 {
		return ErrFDOutOfRange
	}
	if fd == l.wakeR {
		return ErrFDNotRegistered
	}
	l.fdMu.RLock()
	defer l.fdMu.RUnlock()
	if l.closed.Load() {
		return ErrLoopClosed
	}
	return l.poller.modify(fd, events)
}

func (l *pollLoop) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	l.fdMu.Lock()
	defer l.fdMu.Unlock()
	l.closeFDs()
	return nil
}

func (l *pollLoop) closeFDs() {
	_ = l.poller.close()
	_ = unix.Close(l.wakeR)
	if l.wakeW != l.wakeR {
		_ = unix.Close(l.wakeW)
	}
}
