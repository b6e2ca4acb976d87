// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package racing

import (
	"sync"
	"time"

	"github.com/gogama/apiconn/request"
)

// AlwaysStart is a starter that starts every scheduled copy.
var AlwaysStart Starter = alwaysStarter{}

type alwaysStarter struct{}

func (alwaysStarter) Start(_ *request.Request) bool {
	return true
}

// A Limit caps the number of copies started per period.
type Limit struct {
	MaxAttempts int
	Period      time.Duration
}

// NewThrottleStarter returns a starter which refuses to start a copy
// while any of the limits is reached. The limits are shared by every
// request sent through the policy.
//
// The following starter stops racing once 10 copies have started in the
// last half second, or 15 in the last second:
//
//	s := racing.NewThrottleStarter(
//		racing.Limit{MaxAttempts: 10, Period: 500*time.Millisecond},
//		racing.Limit{MaxAttempts: 15, Period: 1*time.Second})
//
// The first copy of a request is never subject to a starter.
func NewThrottleStarter(limits ...Limit) Starter {
	st := &throttleStarter{
		limits: make([]limitQueue, len(limits)),
	}
	for i, l := range limits {
		st.limits[i] = newLimitQueue(l.Period, l.MaxAttempts)
	}
	return st
}

type throttleStarter struct {
	limits []limitQueue
	lock   sync.Mutex
}

func (st *throttleStarter) Start(_ *request.Request) bool {
	st.lock.Lock()
	defer st.lock.Unlock()
	now := time.Now()
	for i := range st.limits {
		if !st.limits[i].accept(&now) {
			return false
		}
	}
	return true
}

type limitQueue struct {
	antiPeriod time.Duration
	a          []time.Time
	start, len int
}

func newLimitQueue(period time.Duration, cap int) limitQueue {
	return limitQueue{
		antiPeriod: -period,
		a:          make([]time.Time, cap),
	}
}

func (q *limitQueue) accept(t *time.Time) bool {
	cutoff := t.Add(q.antiPeriod)
	// Expire samples at or before the cutoff.
	n := min(q.start+q.len, len(q.a))
	for i := q.start; i < n; i++ {
		if !cutoff.Before(q.a[i]) {
			q.start++
			q.len--
		}
	}
	if q.start >= len(q.a) {
		q.start = 0
		n = q.len
		for j := 0; j < n; j++ {
			if !cutoff.Before(q.a[j]) {
				q.start++
				q.len--
			}
		}
	}
	if q.len < len(q.a) {
		i := (q.start + q.len) % len(q.a)
		q.a[i] = *t
		q.len++
		return true
	}
	return false
}
