// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package runloop

import (
	"sync"
	"sync/atomic"
)

// sourceSet tracks registered sources and their pending flags. It is shared
// by every Loop implementation in this package.
type sourceSet struct {
	entries map[Source]*sourceEntry
	order   []*sourceEntry
	mu      sync.RWMutex
}

type sourceEntry struct {
	src       Source
	signalled atomic.Bool
	removed   atomic.Bool
}

func (x *sourceSet) add(src Source) error {
	if src == nil {
		return ErrNilSource
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.entries[src]; ok {
		return ErrSourceRegistered
	}
	if x.entries == nil {
		x.entries = make(map[Source]*sourceEntry)
	}
	entry := &sourceEntry{src: src}
	x.entries[src] = entry
	x.order = append(x.order, entry)
	return nil
}

func (x *sourceSet) remove(src Source) error {
	if src == nil {
		return ErrNilSource
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	entry, ok := x.entries[src]
	if !ok {
		return ErrSourceNotRegistered
	}
	// a snapshot taken by perform may still reference the entry
	entry.removed.Store(true)
	delete(x.entries, src)
	for i, v := range x.order {
		if v == entry {
			x.order = append(x.order[:i], x.order[i+1:]...)
			break
		}
	}
	return nil
}

func (x *sourceSet) signal(src Source) error {
	if src == nil {
		return ErrNilSource
	}
	x.mu.RLock()
	entry, ok := x.entries[src]
	x.mu.RUnlock()
	if !ok {
		return ErrSourceNotRegistered
	}
	entry.signalled.Store(true)
	return nil
}

// perform calls Perform for every signalled source, in registration order,
// clearing each flag before the call. The snapshot buffer is returned for
// reuse, and must only be used by the loop goroutine.
func (x *sourceSet) perform(snapshot []*sourceEntry) []*sourceEntry {
	x.mu.RLock()
	snapshot = append(snapshot[:0], x.order...)
	x.mu.RUnlock()
	for i, entry := range snapshot {
		snapshot[i] = nil
		if entry.removed.Load() {
			continue
		}
		if entry.signalled.CompareAndSwap(true, false) {
			entry.src.Perform()
		}
	}
	return snapshot[:0]
}
