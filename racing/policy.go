// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package racing

import (
	"time"

	"github.com/gogama/apiconn/request"
	"github.com/gogama/apiconn/retry"
)

// A Scheduler decides when to start the next copy of a request.
//
// Schedule is called each time a copy starts, with the number of copies
// started so far, which is at least one. It returns how long after the
// latest copy the next one should start, or zero to start no more.
//
// Implementations must be safe for concurrent use by multiple
// goroutines.
type Scheduler interface {
	Schedule(r *request.Request, racing int) time.Duration
}

// A Starter starts or discards a previously scheduled copy of a
// request. If the copy is discarded, no further copies are scheduled
// for the request.
//
// Implementations must be safe for concurrent use by multiple
// goroutines.
type Starter interface {
	Start(r *request.Request) bool
}

// A Policy combines a Scheduler and a Starter.
type Policy interface {
	Scheduler
	Starter
}

// Disabled is a policy which never races. A Transport with this policy
// sends every request exactly once.
var Disabled Policy = disabled{}

type disabled struct{}

func (disabled) Schedule(_ *request.Request, _ int) time.Duration {
	return 0
}

func (disabled) Start(_ *request.Request) bool {
	return false
}

type policy struct {
	Scheduler
	Starter
}

// NewPolicy composes a scheduler and a starter into a racing policy.
func NewPolicy(sc Scheduler, st Starter) Policy {
	if sc == nil {
		panic("apiconn/racing: nil scheduler")
	}
	if st == nil {
		panic("apiconn/racing: nil starter")
	}
	return policy{sc, st}
}

// NewStaticScheduler returns a scheduler which starts the second copy
// offsets[0] after the first, the third offsets[1] after the second,
// and so on, for at most len(offsets)+1 copies. A zero offset ends the
// schedule early.
func NewStaticScheduler(offsets ...time.Duration) Scheduler {
	s := make(staticScheduler, len(offsets))
	copy(s, offsets)
	return s
}

type staticScheduler []time.Duration

func (s staticScheduler) Schedule(_ *request.Request, racing int) time.Duration {
	if racing < 1 || racing > len(s) {
		return 0
	}
	return s[racing-1]
}

// OnlyIdempotent wraps sc so that only requests with an idempotent
// method, in the sense of retry.Idempotent, are raced.
func OnlyIdempotent(sc Scheduler) Scheduler {
	return idempotentScheduler{sc}
}

type idempotentScheduler struct {
	Scheduler
}

func (s idempotentScheduler) Schedule(r *request.Request, racing int) time.Duration {
	if !retry.Idempotent.Decide(r, nil) {
		return 0
	}
	return s.Scheduler.Schedule(r, racing)
}
