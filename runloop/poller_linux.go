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
	events [128]unix.EpollEvent
	mu     sync.RWMutex
	epfd   int
}

func (p *poller) init() error {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return err
	}
	p.epfd = epfd
	p.fds = make(map[int]fdEntry)
	return nil
}

func (p *poller) close() error {
	return unix.Close(p.epfd)
}

func (p *poller) register(fd int, events IOEvents, cb IOCallback) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.fds[fd]; ok {
		return ErrFDAlreadyRegistered
	}
	ev := unix.EpollEvent{Events: toEpoll(events), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return err
	}
	p.fds[fd] = fdEntry{callback: cb, events: events}
	return nil
}

func (p *poller) unregister(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.fds[fd]; !ok {
		return ErrFDNotRegistered
	}
	delete(p.fds, fd)
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if err == unix.EBADF || err == unix.ENOENT {
		// already closed by the caller, which implicitly removes it
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
	ev := unix.EpollEvent{Events: toEpoll(events), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return err
	}
	entry.events = events
	p.fds[fd] = entry
	return nil
}

// wait blocks for up to timeoutMs (-1 being indefinitely), then dispatches
// callbacks inline. EINTR is not an error.
func (p *poller) wait(timeoutMs int) error {
	n, err := unix.EpollWait(p.epfd, p.events[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}
	for i := range n {
		fd := int(p.events[i].Fd)
		p.mu.RLock()
		entry, ok := p.fds[fd]
		p.mu.RUnlock()
		if ok {
			entry.callback(fromEpoll(p.events[i].Events))
		}
	}
	return nil
}

func toEpoll(events IOEvents) (v uint32) {
	if events&EventRead != 0 {
		v |= unix.EPOLLIN
	}
	if events&EventWrite != 0 {
		v |= unix.EPOLLOUT
	}
	return
}

func fromEpoll(v uint32) (events IOEvents) {
	if v&unix.EPOLLIN != 0 {
		events |= EventRead
	}
	if v&unix.EPOLLOUT != 0 {
		events |= EventWrite
	}
	if v&unix.EPOLLERR != 0 {
		events |= EventError
	}
	if v&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		events |= EventHangup
	}
	return
}
