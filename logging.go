// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package workerthread

import (
	"fmt"
	"log"
)

// logCritical logs a fault of the thread itself, falling back to the
// standard logger if the configured logger panics.
func (t *Thread) logCritical(msg string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("workerthread: %s: %s: %v (logger panicked: %v)", t.name, msg, err, r)
		}
	}()
	t.logger.Crit().
		Str("thread", t.name).
		Err(err).
		Log(msg)
}

// logError logs a non-fatal error, with the same fallback as logCritical.
func (t *Thread) logError(msg string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("workerthread: %s: %s: %v (logger panicked: %v)", t.name, msg, err, r)
		}
	}()
	t.logger.Err().
		Str("thread", t.name).
		Err(err).
		Log(msg)
}

func (t *Thread) logDebug(msg string, queued int) {
	defer func() {
		_ = recover()
	}()
	t.logger.Debug().
		Str("thread", t.name).
		Int("queued", queued).
		Log(msg)
}

// logCallbackFailure logs the failure of a work item that has no future,
// rate limited per category, being the dynamic type of the error (or the
// panic value).
func (t *Thread) logCallbackFailure(err error) {
	if t.logger == nil {
		return
	}
	category := failureCategory(err)
	if _, ok := t.limiter.Allow(category); !ok {
		t.stats.suppressed.Add(1)
		return
	}
	t.logError("posted callback failed", err)
}

func failureCategory(err error) string {
	if v, ok := err.(PanicError); ok {
		return fmt.Sprintf("panic:%T", v.Value)
	}
	return fmt.Sprintf("error:%T", err)
}
