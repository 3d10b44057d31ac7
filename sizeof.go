// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package workerthread

const (
	// sizeOfCacheLine covers the 128 byte prefetch pairs of modern x86 and
	// the cache lines of Apple silicon.
	sizeOfCacheLine    = 128
	sizeOfAtomicUint64 = 8
)
