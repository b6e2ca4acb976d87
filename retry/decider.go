// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"net/http"

	"github.com/gogama/apiconn/request"
	"github.com/gogama/apiconn/transient"
)

// A Decider decides whether an attempt which failed with a transport
// error may be retried. The retry still consumes one unit of the retry
// budget, so a Decider never extends the number of attempts.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
type Decider interface {
	Decide(r *request.Request, err error) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It also provides the And and Or methods
// to compose deciders.
type DeciderFunc func(r *request.Request, err error) bool

// DefaultDecider is the default transport error decider. It retries
// any error classified as transient by the transient package.
var DefaultDecider Decider = TransientErr

// TransientErr is a decider that returns true if the error is transient
// according to transient.Categorize.
var TransientErr DeciderFunc = transientErr

// Idempotent is a decider that returns true if the request method is
// idempotent in the sense of RFC 7231 section 4.2.2.
var Idempotent = Methods(
	http.MethodGet,
	http.MethodHead,
	http.MethodOptions,
	http.MethodTrace,
	http.MethodPut,
	http.MethodDelete,
)

// Decide calls f(r, err).
func (f DeciderFunc) Decide(r *request.Request, err error) bool {
	return f(r, err)
}

// And composes two deciders into a new decider which returns true if
// both sub-deciders return true, and false otherwise.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(r *request.Request, err error) bool {
		return f(r, err) && g(r, err)
	}
}

// Or composes two deciders into a new decider which returns true if
// either sub-decider returns true, and false otherwise.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(r *request.Request, err error) bool {
		return f(r, err) || g(r, err)
	}
}

// Methods constructs a decider which returns true if the request method
// is one of the given methods.
func Methods(ms ...string) DeciderFunc {
	set := make(map[string]bool, len(ms))
	for _, m := range ms {
		set[m] = true
	}
	return func(r *request.Request, _ error) bool {
		return set[r.Method()]
	}
}

func transientErr(_ *request.Request, err error) bool {
	return transient.Retryable(err)
}
