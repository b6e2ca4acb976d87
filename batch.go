// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apiconn

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/gogama/apiconn/request"
	"github.com/gogama/apiconn/transport"
)

var errNoResult = errors.New("apiconn: transport returned no result")

// SendAll sends a keyed batch of requests, each with its own options,
// and returns the final response for every key.
//
// Each key goes through the same lifecycle as Send. The attempts of one
// round are sent together with the transport's ExecMultiple, and the
// keys which need a retry form the next round. If any key of a round
// needs to wait before retrying, the whole round waits for the longest
// such wait.
//
// The options of every key are resolved before anything is sent. If
// any are invalid, or any request is nil, SendAll returns a nil map
// and the *InvalidOptionError of the first invalid key, in key order.
//
// Otherwise the returned map has exactly the keys of reqs. A key whose
// send failed maps to its last response, which may be nil, and its
// error is reported in the returned *BatchError. The failure of one key
// never stops another.
func (m *Manager) SendAll(ctx context.Context, reqs map[string]*request.Request, opts map[string][]Option) (map[string]*request.Response, error) {
	keys := make([]string, 0, len(reqs))
	for k := range reqs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	resolved := make(map[string]Options, len(keys))
	for _, k := range keys {
		if reqs[k] == nil {
			return nil, errNilRequest(k)
		}
		o, err := m.resolveOptions(opts[k])
		if err != nil {
			return nil, withKey(err, k)
		}
		resolved[k] = o
	}

	sends := make(map[string]*send, len(keys))
	for _, k := range keys {
		sends[k] = m.newSend(ctx, k, reqs[k], resolved[k])
	}

	pending := keys
	for len(pending) > 0 {
		round := make(map[string]*request.Request, len(pending))
		for _, k := range pending {
			if r, ok := sends[k].prepare(); ok {
				round[k] = r
			}
		}
		if len(round) == 0 {
			break
		}

		results := m.transport().ExecMultiple(ctx, round)
		var next []string
		var wait time.Duration
		for _, k := range pending {
			if _, sent := round[k]; !sent {
				continue
			}
			result, ok := results[k]
			if !ok {
				result = transport.Result{Err: errNoResult}
			}
			s := sends[k]
			d := s.evaluate(result.Response, result.Err)
			if !s.done {
				next = append(next, k)
				if d > wait {
					wait = d
				}
			}
		}

		if len(next) > 0 && !sleep(ctx, wait) {
			for _, k := range next {
				s := sends[k]
				s.fail(&TransportError{Request: s.req, Err: ctx.Err()})
			}
			break
		}
		pending = next
	}

	out := make(map[string]*request.Response, len(keys))
	var errs map[string]error
	for _, k := range keys {
		resp, err := sends[k].finish()
		out[k] = resp
		if err != nil {
			if errs == nil {
				errs = make(map[string]error)
			}
			errs[k] = err
		}
	}
	if errs != nil {
		return out, &BatchError{Errs: errs}
	}
	return out, nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
