// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/gogama/apiconn/request"
	"github.com/gogama/apiconn/timeout"
)

// A Transport sends one HTTP request and returns the response.
//
// Exec returns an error only if no response was received. A non-2XX
// response is not an error at this level.
//
// ExecMultiple sends a keyed set of requests and returns a result for
// every key, in any order of completion. A failure for one key never
// affects another.
//
// Implementations of Transport must be safe for concurrent use by
// multiple goroutines.
type Transport interface {
	Exec(ctx context.Context, r *request.Request) (*request.Response, error)
	ExecMultiple(ctx context.Context, rs map[string]*request.Request) map[string]Result
}

// A Result is the outcome of one request sent by ExecMultiple. Exactly
// one of Response and Err is non-nil.
type Result struct {
	Response *request.Response
	Err      error
}

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard HTTP client, http.Client.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response. See the
	// GoLang standard library http.Client.Do for the full contract.
	Do(r *http.Request) (*http.Response, error)
}

// An IdleCloser can close idle connections. http.Client is one.
type IdleCloser interface {
	CloseIdleConnections()
}

// DefaultConcurrency is the maximum number of requests ExecMultiple has
// in flight at once when HTTP.Concurrency is zero.
const DefaultConcurrency = 8

// HTTP is a Transport which sends requests with an HTTPDoer, usually an
// *http.Client. Connection pooling, TLS, redirects, and caching are all
// the business of the HTTPDoer.
//
// The zero value is ready to use, with http.DefaultClient as the doer,
// timeout.DefaultPolicy for per-attempt timeouts, DefaultConcurrency,
// and no rate limit.
type HTTP struct {
	// Doer sends the requests. If nil, http.DefaultClient is used.
	Doer HTTPDoer

	// Timeout gives each attempt its deadline. If nil,
	// timeout.DefaultPolicy is used.
	Timeout timeout.Policy

	// Concurrency bounds the number of requests ExecMultiple has in
	// flight. Zero or less means DefaultConcurrency.
	Concurrency int

	// Limiter, if not nil, paces every request sent, including each
	// request of ExecMultiple.
	Limiter *rate.Limiter
}

// Exec sends r and returns the response with its body fully read.
//
// Errors from the doer are returned as *url.Error, as http.Client
// does, so that they may be inspected with errors.As or classified
// with the transient package.
func (t *HTTP) Exec(ctx context.Context, r *request.Request) (*request.Response, error) {
	if t.Limiter != nil {
		if err := t.Limiter.Wait(ctx); err != nil {
			return nil, urlErrorWrap(r, err)
		}
	}

	if d := t.timeoutPolicy().Timeout(r); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	req, err := r.ToHTTP(ctx)
	if err != nil {
		return nil, urlErrorWrap(r, err)
	}
	resp, err := t.doer().Do(req)
	if err != nil {
		return nil, urlErrorWrap(r, err)
	}
	// The body must be read before the attempt context is cancelled.
	out, err := request.FromHTTP(resp)
	if err != nil {
		return nil, urlErrorWrap(r, err)
	}
	return out, nil
}

// ExecMultiple sends every request in rs through Exec, with at most
// Concurrency requests in flight, and waits for all of them.
func (t *HTTP) ExecMultiple(ctx context.Context, rs map[string]*request.Request) map[string]Result {
	results := make(map[string]Result, len(rs))
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(t.concurrency())
	for key, r := range rs {
		g.Go(func() error {
			resp, err := t.Exec(ctx, r)
			mu.Lock()
			results[key] = Result{Response: resp, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// CloseIdleConnections invokes the same method on the underlying
// HTTPDoer, if it has one.
func (t *HTTP) CloseIdleConnections() {
	if ic, ok := t.doer().(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (t *HTTP) doer() HTTPDoer {
	if t.Doer == nil {
		return http.DefaultClient
	}
	return t.Doer
}

func (t *HTTP) timeoutPolicy() timeout.Policy {
	if t.Timeout == nil {
		return timeout.DefaultPolicy
	}
	return t.Timeout
}

func (t *HTTP) concurrency() int {
	if t.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return t.Concurrency
}

func urlErrorWrap(r *request.Request, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}
	return &url.Error{
		Op:  urlErrorOp(r.Method()),
		URL: r.URI().String(),
		Err: err,
	}
}

// urlErrorOp is lifted verbatim from net/http/client.go
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
