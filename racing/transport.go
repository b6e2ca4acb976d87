// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package racing

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gogama/apiconn/request"
	"github.com/gogama/apiconn/transient"
	"github.com/gogama/apiconn/transport"
)

// Redundant is the cause of the cancellation of every copy still in
// flight when a race ends.
var Redundant = errors.New("apiconn/racing: redundant attempt")

// Transport is a transport.Transport which races copies of each request
// through an inner transport, according to a Policy.
type Transport struct {
	// Inner sends each copy. It must not be nil.
	Inner transport.Transport

	// Policy schedules and starts extra copies. If nil, Disabled is
	// used and every request goes straight to Inner.
	Policy Policy

	// Concurrency bounds the number of races ExecMultiple runs at once.
	// Zero or less means transport.DefaultConcurrency.
	Concurrency int
}

type outcome struct {
	resp *request.Response
	err  error
}

// final reports whether o ends the race.
func (o outcome) final() bool {
	return o.err == nil || !transient.Retryable(o.err)
}

// Exec races copies of r until one of them produces a final outcome.
func (t *Transport) Exec(ctx context.Context, r *request.Request) (*request.Response, error) {
	p := t.policy()
	d := p.Schedule(r, 1)
	if d <= 0 {
		return t.Inner.Exec(ctx, r)
	}

	raceCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(Redundant)

	outcomes := make(chan outcome)
	run := func() {
		resp, err := t.Inner.Exec(raceCtx, r)
		select {
		case outcomes <- outcome{resp, err}:
		case <-raceCtx.Done():
		}
	}

	go run()
	racing, pending := 1, 1
	timer := time.NewTimer(d)
	defer timer.Stop()
	next := timer.C

	var last outcome
	for pending > 0 {
		select {
		case o := <-outcomes:
			pending--
			if o.final() {
				return o.resp, o.err
			}
			last = o
		case <-next:
			next = nil
			if !p.Start(r) {
				continue
			}
			go run()
			racing++
			pending++
			if d = p.Schedule(r, racing); d > 0 {
				timer.Reset(d)
				next = timer.C
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return last.resp, last.err
}

// ExecMultiple runs a race for every request, at most Concurrency races
// at a time.
func (t *Transport) ExecMultiple(ctx context.Context, rs map[string]*request.Request) map[string]transport.Result {
	var mu sync.Mutex
	results := make(map[string]transport.Result, len(rs))
	var g errgroup.Group
	g.SetLimit(t.concurrency())
	for k, r := range rs {
		g.Go(func() error {
			resp, err := t.Exec(ctx, r)
			mu.Lock()
			results[k] = transport.Result{Response: resp, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// CloseIdleConnections closes the idle connections of the inner
// transport, if it is able to.
func (t *Transport) CloseIdleConnections() {
	if ic, ok := t.Inner.(transport.IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (t *Transport) policy() Policy {
	if t.Policy == nil {
		return Disabled
	}
	return t.Policy
}

func (t *Transport) concurrency() int {
	if t.Concurrency <= 0 {
		return transport.DefaultConcurrency
	}
	return t.Concurrency
}
