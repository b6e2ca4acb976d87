// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"syscall"
)

// A Category is the transience category of an error, as reported by
// Categorize.
//
// Not means a retry is very unlikely to succeed. Every other category
// means a retry has some prospect of success.
type Category int

const (
	// Not indicates a non-transient error, including a nil error and
	// context cancellation.
	Not Category = iota
	// Timeout indicates a client-side timeout: the error, or one of the
	// errors it wraps, has a Timeout method reporting true. An attempt
	// which exceeded its per-attempt deadline falls in this category.
	Timeout
	// ConnRefused indicates the remote host refused the connection
	// (syscall.ECONNREFUSED). The service may be restarting and not yet
	// listening.
	ConnRefused
	// ConnReset indicates the remote host reset an established
	// connection (syscall.ECONNRESET), typically because it or a load
	// balancer in front of it went away mid-request.
	ConnReset
	// ConnAborted indicates the connection was aborted locally
	// (syscall.ECONNABORTED).
	ConnAborted
)

var categoryNames = []string{
	Not:         "not",
	Timeout:     "timeout",
	ConnRefused: "conn_refused",
	ConnReset:   "conn_reset",
	ConnAborted: "conn_aborted",
}

// String returns a short, lower-case name for the category, suitable
// for use as a metric label.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// Categorize returns the transience category of err. Wrapped causes are
// examined as well as err itself. A Temporary method is never
// consulted, since its meaning is not well defined.
//
// Cancellation of a context is never transient, even though the
// cancellation error may arrive wrapped in an error reporting a
// timeout.
func Categorize(err error) Category {
	if err == nil || errors.Is(err, context.Canceled) {
		return Not
	}

	var t interface{ Timeout() bool }
	if errors.As(err, &t) && t.Timeout() {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED:
			return ConnRefused
		case syscall.ECONNRESET:
			return ConnReset
		case syscall.ECONNABORTED:
			return ConnAborted
		}
	}

	return Not
}

// Retryable reports whether err is transient, that is whether its
// category is anything other than Not.
func Retryable(err error) bool {
	return Categorize(err) != Not
}
