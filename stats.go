// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package workerthread

import (
	"sync/atomic"
)

// Stats is a snapshot of a Thread's counters.
type Stats struct {
	// Submitted counts accepted submissions, including inline sends.
	Submitted uint64
	// Rejected counts submissions that failed with ErrStopped or ErrQueueFull.
	Rejected uint64
	// Executed counts callbacks that were invoked.
	Executed  uint64
	Completed uint64
	// Cancelled counts items resolved as cancelled, whether or not their
	// callback was invoked.
	Cancelled uint64
	Failed    uint64
	// Drains counts drain passes, i.e. observed wake-ups.
	Drains uint64
	// MaxDrain is the largest number of items drained by a single pass.
	MaxDrain uint64
	// SuppressedLogs counts failure logs dropped by the rate limiter.
	SuppressedLogs uint64
	// Queued is the current queue depth.
	Queued int
	State  State
}

type threadStats struct {
	submitted  atomic.Uint64
	rejected   atomic.Uint64
	executed   atomic.Uint64
	completed  atomic.Uint64
	cancelled  atomic.Uint64
	failed     atomic.Uint64
	drains     atomic.Uint64
	maxDrain   atomic.Uint64
	suppressed atomic.Uint64
}

// Stats returns a snapshot of the thread's counters. The fields are read
// individually, and may not be mutually consistent while running.
func (t *Thread) Stats() Stats {
	return Stats{
		Submitted:      t.stats.submitted.Load(),
		Rejected:       t.stats.rejected.Load(),
		Executed:       t.stats.executed.Load(),
		Completed:      t.stats.completed.Load(),
		Cancelled:      t.stats.cancelled.Load(),
		Failed:         t.stats.failed.Load(),
		Drains:         t.stats.drains.Load(),
		MaxDrain:       t.stats.maxDrain.Load(),
		SuppressedLogs: t.stats.suppressed.Load(),
		Queued:         t.queue.Len(),
		State:          t.State(),
	}
}

// recordDrain is only called from the loop goroutine.
func (x *threadStats) recordDrain(n int) {
	x.drains.Add(1)
	if v := uint64(n); v > x.maxDrain.Load() {
		x.maxDrain.Store(v)
	}
}

func (x *threadStats) recordOutcome(state FutureState) {
	switch state {
	case FutureCompleted:
		x.completed.Add(1)
	case FutureCancelled:
		x.cancelled.Add(1)
	case FutureFailed:
		x.failed.Add(1)
	}
}
