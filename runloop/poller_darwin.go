// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package runloop

import (
	"sync"

	"golang.org/x/sys/unix"
)

type poller struct {
	fds    map[int]fdEntry
	events [128]unix.Kevent_t
	mu     sync.RWMutex
	kq     int
}

func (p *poller) init() error {
	kq, err := unix.Kqueue()
	if err != nil {
		return err
	}
	unix.CloseOnExec(kq)
	p.kq = kq
	p.fds = make(map[int]fdEntry)
	return nil
}

func (p *poller) close() error {
	return unix.Close(p.kq)
}

func (p *poller) register(fd int, events IOEvents, cb IOCallback) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.fds[fd]; ok {
		return ErrFDAlreadyRegistered
	}
	if err := p.apply(toKevents(fd, events, unix.EV_ADD|unix.EV_ENABLE)); err != nil {
		return err
	}
	p.fds[fd] = fdEntry{callback: cb, events: events}
	return nil
}

func (p *poller) unregister(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.fds[fd]
	if !ok {
		return ErrFDNotRegistered
	}
	delete(p.fds, fd)
	err := p.apply(toKevents(fd, entry.events, unix.EV_DELETE))
	if err == unix.EBADF || err == unix.ENOENT {
		err = nil
	}
	return err
}

func (p *poller) modify(fd int, events IOEvents) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.fds[fd]
	if !ok {
		return ErrFDNotRegistered
	}
	if removed := entry.events &^ events; removed != 0 {
		if err := p.apply(toKevents(fd, removed, unix.EV_DELETE)); err != nil && err != unix.ENOENT {
			return err
		}
	}
	if err := p.apply(toKevents(fd, events, unix.EV_ADD|unix.EV_ENABLE)); err != nil {
		return err
	}
	entry.events = events
	p.fds[fd] = entry
	return nil
}

func (p *poller) apply(changes []unix.Kevent_t) error {
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	return err
}

// wait blocks for up to timeoutMs (-1 being indefinitely), then dispatches
// callbacks inline. EINTR is not an error.
func (p *poller) wait(timeoutMs int) error {
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		ts = &unix.Timespec{
			Sec:  int64(timeoutMs / 1000),
			Nsec: int64(timeoutMs%1000) * 1e6,
		}
	}
	n, err := unix.Kevent(p.kq, nil, p.events[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}
	for i := range n {
		fd := int(p.events[i].Ident)
		p.mu.RLock()
		entry, ok := p.fds[fd]
		p.mu.RUnlock()
		if ok {
			entry.callback(fromKevent(&p.events[i]))
		}
	}
	return nil
}

func toKevents(fd int, events IOEvents, flags uint16) []unix.Kevent_t {
	var changes []unix.Kevent_t
	if events&EventRead != 0 {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flags})
	}
	if events&EventWrite != 0 {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags})
	}
	return changes
}

func fromKevent(kev *unix.Kevent_t) (events IOEvents) {
	switch kev.Filter {
	case unix.EVFILT_READ:
		events |= EventRead
	case unix.EVFILT_WRITE:
		events |= EventWrite
	}
	if kev.Flags&unix.EV_ERROR != 0 {
		events |= EventError
	}
	if kev.Flags&unix.EV_EOF != 0 {
		events |= EventHangup
	}
	return
}
