// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the two immutable values which travel through
the apiconn request pipeline: Request, describing an HTTP request to
send, and Response, describing the HTTP response received.

A Request is deliberately an immutable value rather than a *http.Request.
The pipeline may rewrite a request several times before it is sent (to
resolve its URI against a base URI, to add credentials, or to substitute
a freshly authenticated request after a challenge), and a retried
request may be sent several times. Every With method therefore returns
a new Request and leaves the receiver untouched, so two attempts never
share mutable state:

	r, err := request.NewRequest("GET", "users/42", nil)
	...
	r2 := r.WithHeader("Accept", "application/json")
	// r has no Accept header, r2 does.

The request body is buffered into a []byte at construction time, as in
a request plan, so that it can be replayed on every attempt.

A Response is similarly immutable. Its body is fully read by the
transport before the Response is built, so it may be inspected any
number of times.

Requests are compared by value, using Equal. The pipeline relies on
value equality to decide whether a retry is a repeat of the same
request or a new one.
*/
package request
