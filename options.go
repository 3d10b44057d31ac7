// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package workerthread

import (
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-workerthread/runloop"
	"github.com/joeycumines/logiface"
)

type threadOptions struct {
	logger        *logiface.Logger[logiface.Event]
	limiter       *catrate.Limiter
	runLoop       func() (runloop.Loop, error)
	name          string
	maxQueueDepth int
}

// Option configures a Thread, see New.
type Option interface {
	applyThread(*threadOptions) error
}

type threadOptionImpl struct {
	applyThreadFunc func(*threadOptions) error
}

func (x *threadOptionImpl) applyThread(opts *threadOptions) error {
	return x.applyThreadFunc(opts)
}

// defaultFailureLogRates limits logs of fire-and-forget failures, per
// category (the panic or error type).
var defaultFailureLogRates = map[time.Duration]int{
	time.Second: 5,
	time.Minute: 60,
}

var threadCounter atomic.Uint64

// WithName sets the name used to identify the thread in logs.
func WithName(name string) Option {
	return &threadOptionImpl{func(opts *threadOptions) error {
		opts.name = name
		return nil
	}}
}

// WithLogger configures structured logging. A nil logger disables logging,
// which is the default.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &threadOptionImpl{func(opts *threadOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithMaxQueueDepth limits the number of queued (not yet drained) items.
// Submissions beyond the limit fail with ErrQueueFull. The default, 0, is
// unbounded.
func WithMaxQueueDepth(depth int) Option {
	return &threadOptionImpl{func(opts *threadOptions) error {
		if depth < 0 {
			return fmt.Errorf("%w: negative max queue depth: %d", ErrInvalidOption, depth)
		}
		opts.maxQueueDepth = depth
		return nil
	}}
}

// WithRunLoopFactory overrides the run loop, which defaults to
// runloop.New. The factory is called on the loop goroutine, after it has
// been locked to its OS thread. The Thread takes ownership of the loop, and
// closes it on exit.
func WithRunLoopFactory(factory func() (runloop.Loop, error)) Option {
	return &threadOptionImpl{func(opts *threadOptions) error {
		if factory == nil {
			return fmt.Errorf("%w: nil run loop factory", ErrInvalidOption)
		}
		opts.runLoop = factory
		return nil
	}}
}

// WithFailureLogRates configures the rate limits for logging failures of
// fire-and-forget callbacks (see Thread.Post), per category, in the format
// accepted by catrate.NewLimiter. A nil or empty map disables rate limiting.
func WithFailureLogRates(rates map[time.Duration]int) Option {
	return &threadOptionImpl{func(opts *threadOptions) (err error) {
		if len(rates) == 0 {
			opts.limiter = nil
			return nil
		}
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: failure log rates: %v", ErrInvalidOption, r)
			}
		}()
		opts.limiter = catrate.NewLimiter(rates)
		return nil
	}}
}

func resolveOptions(opts []Option) (*threadOptions, error) {
	cfg := &threadOptions{
		runLoop: runloop.New,
		limiter: catrate.NewLimiter(defaultFailureLogRates),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyThread(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.name == "" {
		cfg.name = "workerthread-" + strconv.FormatUint(threadCounter.Add(1), 10)
	}
	if cfg.runLoop == nil {
		return nil, errors.New("workerthread: no run loop factory")
	}
	return cfg, nil
}
