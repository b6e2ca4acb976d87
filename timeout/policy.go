// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"net/http"
	"time"

	"github.com/gogama/apiconn/request"
)

// A Policy decides the timeout of each HTTP request attempt.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the timeout to set on an attempt to send request
	// r. A non-positive return value means no timeout.
	Timeout(r *request.Request) time.Duration
}

// DefaultPolicy is the default timeout policy. It sets a timeout of 5
// seconds on every attempt.
var DefaultPolicy Policy = Fixed(5 * time.Second)

// Infinite is a timeout policy which never times out.
var Infinite Policy = Fixed(1<<63 - 1)

// Fixed constructs a timeout policy that always returns the given
// duration.
func Fixed(d time.Duration) Policy {
	return fixed(d)
}

type fixed time.Duration

func (p fixed) Timeout(_ *request.Request) time.Duration {
	return time.Duration(p)
}

// ByMethod constructs a timeout policy that looks up the timeout by the
// request method, falling back to def for methods not in the table.
//
// It is typically used to give safe methods a shorter timeout than
// unsafe ones:
//
//	timeout.ByMethod(2*time.Second, map[string]time.Duration{
//		"POST": 30 * time.Second,
//	})
func ByMethod(def time.Duration, table map[string]time.Duration) Policy {
	p := byMethod{def: def, table: make(map[string]time.Duration, len(table))}
	for m, d := range table {
		p.table[m] = d
	}
	return p
}

type byMethod struct {
	def   time.Duration
	table map[string]time.Duration
}

func (p byMethod) Timeout(r *request.Request) time.Duration {
	if d, ok := p.table[r.Method()]; ok {
		return d
	}
	return p.def
}

// Idempotent constructs a timeout policy which returns safe for
// requests using an idempotent method (GET, HEAD, OPTIONS, TRACE, PUT
// and DELETE) and unsafe for all others.
func Idempotent(safe, unsafe time.Duration) Policy {
	return ByMethod(unsafe, map[string]time.Duration{
		http.MethodGet:     safe,
		http.MethodHead:    safe,
		http.MethodOptions: safe,
		http.MethodTrace:   safe,
		http.MethodPut:     safe,
		http.MethodDelete:  safe,
	})
}
