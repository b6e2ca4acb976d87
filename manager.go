// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apiconn

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gogama/apiconn/auth"
	"github.com/gogama/apiconn/request"
	"github.com/gogama/apiconn/retry"
	"github.com/gogama/apiconn/transport"
	"github.com/gogama/apiconn/uri"
)

// A Manager sends requests to an API through a Transport, running each
// logical send through the request lifecycle: options are resolved,
// the request URI is resolved against the base URI, PreRequest handlers
// decorate the request, the transport sends it, Response handlers
// evaluate the response, and the send is retried within the retry
// budget or ends.
//
// The zero value is a usable manager with an HTTP transport over
// http.DefaultClient, no base URI, anonymous authentication, and no
// handlers. Authentication is not hard-wired: install an AuthHandler
// to get it.
//
// A Manager must not be modified once it is in use, and is then safe
// for concurrent use by multiple goroutines.
type Manager struct {
	// Transport sends each attempt. If nil, a zero transport.HTTP is
	// used.
	Transport transport.Transport

	// BaseURI is the default base URI for request resolution. It may
	// be nil, in which case request URIs are sent as they are.
	BaseURI *uri.BaseURI

	// DefaultAuthenticator is the default authenticator. If nil,
	// auth.Anonymous is used.
	DefaultAuthenticator auth.Authenticator

	// Defaults are option overrides applied to every send before the
	// overrides passed to Send.
	Defaults []Option

	// Handlers are the event handlers. May be nil.
	Handlers *HandlerGroup

	// RetryPolicy decides which transport errors are retried and how
	// long to wait before retrying an unchanged request. If nil,
	// retry.DefaultPolicy is used.
	RetryPolicy retry.Policy

	// Logger receives debug logs for every attempt and retry decision,
	// and a warning for every failed send. If nil, nothing is logged.
	Logger *zerolog.Logger
}

var (
	defaultTransport transport.Transport = &transport.HTTP{}
	nopLogger                            = zerolog.Nop()
)

// Send sends r, retrying as necessary, and returns the final response.
//
// The error is nil if the final response is OK. If the send ends with a
// non-OK response, the response is returned together with a
// *BadAPIResponseError, unless Exceptions is false in which case the
// error is nil. Invalid options give an *InvalidOptionError before any
// attempt is made, and a failed transport gives a *TransportError. A
// handler may abort the send with an error of its own. A nil r is an
// invalid option.
func (m *Manager) Send(ctx context.Context, r *request.Request, opts ...Option) (*request.Response, error) {
	if r == nil {
		return nil, errNilRequest("")
	}
	o, err := m.resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	s := m.newSend(ctx, "", r, o)
	for !s.done {
		next, ok := s.prepare()
		if !ok {
			break
		}
		resp, err := m.transport().Exec(ctx, next)
		wait := s.evaluate(resp, err)
		if !s.done && !s.sleep(wait) {
			break
		}
	}
	return s.finish()
}

// A send is the state of one logical send. It is owned by a single
// goroutine.
type send struct {
	m       *Manager
	ctx     context.Context
	key     string
	start   time.Time
	opts    Options
	req     *request.Request
	resp    *request.Response
	err     error
	attempt int
	resets  int
	done    bool
	log     zerolog.Logger
}

func (m *Manager) newSend(ctx context.Context, key string, r *request.Request, o Options) *send {
	s := &send{
		m:     m,
		ctx:   ctx,
		key:   key,
		start: time.Now(),
		opts:  o,
		req:   r,
	}
	lc := m.logger().With().Str("method", r.Method())
	if key != "" {
		lc = lc.Str("key", key)
	}
	if o.Tag != nil {
		lc = lc.Interface("tag", o.Tag)
	}
	s.log = lc.Logger()
	m.Handlers.run(BeforeSend, s.exchange())
	return s
}

func (s *send) exchange() *Exchange {
	return &Exchange{
		Manager:  s.m,
		Key:      s.key,
		Request:  s.req,
		Response: s.resp,
		Options:  s.opts,
		Attempt:  s.attempt,
		Start:    s.start,
		Err:      s.err,
		ctx:      s.ctx,
	}
}

// prepare runs the pre-request phase and returns the request to send.
// It returns false if the send ended instead.
func (s *send) prepare() (*request.Request, bool) {
	if err := s.ctx.Err(); err != nil {
		s.fail(&TransportError{Request: s.req, Err: err})
		return nil, false
	}

	if base := s.opts.BaseURI; base != nil {
		u := uri.Resolve(base, s.req.URI())
		if u.String() != s.req.URI().String() {
			s.req = s.req.WithURI(u)
		}
	}

	s.attempt++
	x := s.exchange()
	x.Response = nil
	y := s.m.Handlers.run(PreRequest, x)
	if y.Err != nil {
		s.fail(y.Err)
		return nil, false
	}
	if y.Request != nil {
		s.req = y.Request
	}
	if err := y.Options.validate(); err != nil {
		s.fail(withKey(err, s.key))
		return nil, false
	}
	s.opts = y.Options
	s.opts.Retries++

	s.log.Debug().
		Str("uri", s.req.URI().String()).
		Int("attempt", s.attempt).
		Int("retries", s.opts.Retries).
		Msg("sending attempt")
	return s.req, true
}

// evaluate runs the response phase for the attempt which sent s.req.
// If the send goes on, evaluate returns how long to wait before the
// next attempt.
func (s *send) evaluate(resp *request.Response, err error) time.Duration {
	sent := s.req
	policy := s.m.retryPolicy()

	if err != nil {
		x := s.exchange()
		x.Response = nil
		x.Err = err
		s.m.Handlers.run(AttemptError, x)
		if s.ctx.Err() != nil || !policy.Decide(sent, err) || s.opts.Retries >= s.opts.MaxRetries {
			s.fail(&TransportError{Request: sent, Err: err})
			return 0
		}
		s.log.Debug().Err(err).Int("attempt", s.attempt).Msg("retrying after transport error")
		return policy.Wait(s.opts.Retries - 1)
	}

	x := s.exchange()
	x.Response = resp
	x.NextAttempt = sent
	y := s.m.Handlers.run(Response, x)
	if y.Err != nil {
		s.resp = resp
		s.fail(y.Err)
		return 0
	}
	if y.Response != nil {
		resp = y.Response
	}
	s.resp = resp
	if err := y.Options.validate(); err != nil {
		s.fail(withKey(err, s.key))
		return 0
	}
	s.opts = y.Options

	logEvent := s.log.Debug().
		Int("attempt", s.attempt).
		Int("status", resp.StatusCode())
	if resp.OK() {
		logEvent.Msg("attempt succeeded")
		s.done = true
		return 0
	}

	next := y.NextAttempt
	changed := next != nil && !next.Equal(sent)
	// A send substitutes requests at most MaxRetries-1 times, so a
	// reaction which never settles ends after MaxRetries attempts.
	if next == nil || s.opts.Retries >= s.opts.MaxRetries ||
		changed && s.resets >= s.opts.MaxRetries-1 {
		logEvent.Bool("nominated", next != nil).Msg("giving up")
		if s.opts.Exceptions {
			s.fail(&BadAPIResponseError{
				StatusCode: resp.StatusCode(),
				Reason:     resp.Reason(),
				Response:   resp,
			})
		} else {
			s.done = true
		}
		return 0
	}

	s.req = next
	if changed {
		logEvent.Msg("retrying with new request")
		s.resets++
		s.opts.Retries = 0
		return 0
	}
	logEvent.Int("retries", s.opts.Retries).Msg("retrying")
	return policy.Wait(s.opts.Retries - 1)
}

// sleep waits d, or until the context is done. It returns false, with
// the send failed, if the context ended first.
func (s *send) sleep(d time.Duration) bool {
	if sleep(s.ctx, d) {
		return true
	}
	s.fail(&TransportError{Request: s.req, Err: s.ctx.Err()})
	return false
}

func (s *send) fail(err error) {
	s.err = err
	s.done = true
}

// finish fires AfterSend and returns the outcome of the send.
func (s *send) finish() (*request.Response, error) {
	s.done = true
	if s.err != nil {
		e := s.log.Warn().Err(s.err).Int("attempt", s.attempt)
		if s.resp != nil {
			e = e.Int("status", s.resp.StatusCode())
		}
		e.Msg("send failed")
	}
	s.m.Handlers.run(AfterSend, s.exchange())
	return s.resp, s.err
}

func withKey(err error, key string) error {
	if ioe, ok := err.(*InvalidOptionError); ok && key != "" {
		ioe.Key = key
	}
	return err
}

func (m *Manager) transport() transport.Transport {
	if m.Transport == nil {
		return defaultTransport
	}
	return m.Transport
}

func (m *Manager) retryPolicy() retry.Policy {
	if m.RetryPolicy == nil {
		return retry.DefaultPolicy
	}
	return m.RetryPolicy
}

func (m *Manager) logger() *zerolog.Logger {
	if m.Logger == nil {
		return &nopLogger
	}
	return m.Logger
}
