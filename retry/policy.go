// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/apiconn/request"
)

// A Policy combines a Decider, which decides whether a failed transport
// attempt may be retried, with a Waiter, which decides how long to wait
// before a retry.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	Decider
	Waiter
}

// DefaultPolicy is the default retry policy. Transient transport errors
// are retried within the budget, and retries happen without waiting.
var DefaultPolicy Policy = policy{DefaultDecider, NoWait}

// Never is a retry policy that never retries a transport error. Retries
// of non-OK responses are unaffected, and happen without waiting.
var Never Policy = policy{DeciderFunc(never), NoWait}

type policy struct {
	decider Decider
	waiter  Waiter
}

// NewPolicy constructs a new retry policy from a Decider and a Waiter.
func NewPolicy(d Decider, w Waiter) Policy {
	if d == nil {
		panic("apiconn/retry: nil decider")
	}
	if w == nil {
		panic("apiconn/retry: nil waiter")
	}
	return policy{decider: d, waiter: w}
}

func (p policy) Decide(r *request.Request, err error) bool {
	return p.decider.Decide(r, err)
}

func (p policy) Wait(retry int) time.Duration {
	return p.waiter.Wait(retry)
}

func never(_ *request.Request, _ error) bool {
	return false
}
