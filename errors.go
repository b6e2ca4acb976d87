// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apiconn

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gogama/apiconn/request"
)

// A BadAPIResponseError is returned, along with the response, when a
// send ends with a non-OK response and Options.Exceptions is true.
type BadAPIResponseError struct {
	StatusCode int
	Reason     string
	Response   *request.Response
}

func (err *BadAPIResponseError) Error() string {
	return fmt.Sprintf("apiconn: bad API response: %d %s", err.StatusCode, err.Reason)
}

// An InvalidOptionError is returned when the resolved options of a send
// are invalid. No attempt is made.
type InvalidOptionError struct {
	// Key is the batch key of the send, if it was part of SendAll.
	Key    string
	Option string
	Value  interface{}
	Reason string
}

func errNilRequest(key string) *InvalidOptionError {
	return &InvalidOptionError{Key: key, Option: "request", Reason: "must not be nil"}
}

func (err *InvalidOptionError) Error() string {
	var b strings.Builder
	b.WriteString("apiconn: invalid option")
	if err.Option != "" {
		b.WriteString(" ")
		b.WriteString(err.Option)
	}
	if err.Value != nil {
		fmt.Fprintf(&b, "=%v", err.Value)
	}
	if err.Key != "" {
		fmt.Fprintf(&b, " for key %q", err.Key)
	}
	b.WriteString(": ")
	b.WriteString(err.Reason)
	return b.String()
}

// A TransportError is returned when the transport failed to produce a
// response and the failure was not retried, or the retry budget ran out.
type TransportError struct {
	Request *request.Request
	Err     error
}

func (err *TransportError) Error() string {
	return fmt.Sprintf("apiconn: transport failed for %s: %v", err.Request, err.Err)
}

func (err *TransportError) Unwrap() error {
	return err.Err
}

// A BatchError is returned by SendAll when at least one of the sends
// ended in error. Errs maps the key of each failed send to its error.
type BatchError struct {
	Errs map[string]error
}

func (err *BatchError) Error() string {
	keys := err.keys()
	var b strings.Builder
	fmt.Fprintf(&b, "apiconn: %d batch send(s) failed", len(keys))
	for i, k := range keys {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %v", k, err.Errs[k])
	}
	return b.String()
}

// Unwrap returns the per-key errors in key order, so that errors.Is and
// errors.As look through a BatchError.
func (err *BatchError) Unwrap() []error {
	keys := err.keys()
	errs := make([]error, len(keys))
	for i, k := range keys {
		errs[i] = err.Errs[k]
	}
	return errs
}

func (err *BatchError) keys() []string {
	keys := make([]string, 0, len(err.Errs))
	for k := range err.Errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
