// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apiconn

import (
	"context"
	"time"

	"github.com/gogama/apiconn/request"
)

// An Exchange is the view of a logical send handed to event handlers.
//
// Every handler chain invocation receives its own copy of the exchange.
// Requests, responses, and URIs are immutable values, so a handler
// changes the send only by assigning new values to the fields, and the
// manager decides, per event, which of those assignments it adopts.
// See the documentation of each Event.
type Exchange struct {
	// Manager is the manager running the send. It is never nil.
	Manager *Manager

	// Key is the batch key of the send within SendAll, and empty for
	// Send.
	Key string

	// Request is the caller's request on BeforeSend, the request about
	// to be sent on PreRequest, and the request just sent on
	// AttemptError and Response.
	Request *request.Request

	// Response is the response to the attempt just made. It is nil
	// except on Response and AfterSend.
	Response *request.Response

	// NextAttempt is the request the manager will retry with, within
	// the retry budget, if the response is not OK. It is only read
	// back on Response.
	NextAttempt *request.Request

	// Options are the options of the send. On PreRequest, Retries is
	// the number of attempts already made in the current retry chain.
	Options Options

	// Attempt is the one-based number of the current attempt over the
	// whole send, across retry chains. It is zero on BeforeSend.
	Attempt int

	// Start is the time the send started.
	Start time.Time

	// Err is the transport error on AttemptError and the final error on
	// AfterSend. Setting it on PreRequest or Response aborts the send
	// with that error.
	Err error

	ctx context.Context
}

// Context returns the context of the send.
func (x *Exchange) Context() context.Context {
	if x.ctx == nil {
		return context.Background()
	}
	return x.ctx
}
