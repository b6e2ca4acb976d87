// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math/rand"
	"sync"
	"time"
)

// A Waiter specifies how long to wait before retrying an unchanged
// request.
//
// Parameter retry is the zero-based number of the retry about to be
// made within the current retry chain: zero before the first retry, one
// before the second, and so on. The manager does not wait when a
// handler nominated a different request for the next attempt, since
// that starts a new chain.
//
// Implementations of Waiter must be safe for concurrent use by multiple
// goroutines.
type Waiter interface {
	Wait(retry int) time.Duration
}

// NoWait is a Waiter that never waits.
var NoWait Waiter = fixedWaiter(0)

// DefaultWaiter is a jittered exponential backoff waiter with a base
// wait of 50 milliseconds and a maximum wait of 1 second. It suits most
// callers who want backoff without tuning it.
var DefaultWaiter = NewExpWaiter(50*time.Millisecond, 1*time.Second, time.Now())

// NewFixedWaiter constructs a Waiter that always returns the given
// duration.
func NewFixedWaiter(d time.Duration) Waiter {
	return fixedWaiter(d)
}

type fixedWaiter time.Duration

func (w fixedWaiter) Wait(_ int) time.Duration {
	return time.Duration(w)
}

// NewExpWaiter constructs a Waiter implementing exponential backoff with
// optional "Full Jitter", as described in
// https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter.
//
// The ceiling for retry n is:
//
//	ceil := min(base * 2**n, max)
//
// Base must be positive and max must be at least base.
//
// Parameter jitter may be nil, in which case the waiter returns ceil.
// Otherwise it is a seed (time.Time, int, or int64) or a random source
// (rand.Source or *rand.Rand), and the waiter returns a random duration
// in [0, ceil).
func NewExpWaiter(base, max time.Duration, jitter interface{}) Waiter {
	if base < 1 {
		panic("apiconn/retry: base must be positive")
	}
	if max < base {
		panic("apiconn/retry: max must be at least base")
	}
	return &expWaiter{
		base: base,
		max:  max,
		rand: jitterToRand(jitter),
	}
}

type expWaiter struct {
	base time.Duration
	max  time.Duration
	mu   sync.Mutex
	rand *rand.Rand
}

func (w *expWaiter) Wait(retry int) time.Duration {
	ceil := w.max
	if retry < 0 {
		retry = 0
	}
	if retry < 63 {
		c := w.base << uint(retry)
		if c>>uint(retry) == w.base && c < w.max {
			ceil = c
		}
	}

	if w.rand == nil || ceil <= 0 {
		return ceil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return time.Duration(w.rand.Int63n(int64(ceil)))
}

func jitterToRand(jitter interface{}) *rand.Rand {
	var s rand.Source
	switch j := jitter.(type) {
	case nil:
		return nil
	case time.Time:
		s = rand.NewSource(j.UnixNano())
	case int:
		s = rand.NewSource(int64(j))
	case int64:
		s = rand.NewSource(j)
	case *rand.Rand:
		if j == nil {
			panic("apiconn/retry: jitter may not be a typed nil")
		}
		return j
	case rand.Source:
		s = j
	default:
		panic("apiconn/retry: invalid jitter type")
	}
	return rand.New(s)
}
