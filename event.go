// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apiconn

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Manager to extend it with custom
// functionality: authentication, request ids, and metrics are all
// implemented as handlers.
type Event int

const (
	// BeforeSend identifies the event that occurs once at the start of
	// each logical send, after the options have been resolved.
	//
	// When Manager fires BeforeSend, the exchange holds the caller's
	// request and the resolved options. Changes made by BeforeSend
	// handlers are discarded.
	BeforeSend Event = iota
	// PreRequest identifies the event that occurs before each attempt,
	// after the request URI has been resolved against the base URI.
	//
	// PreRequest handlers may replace the exchange's request and
	// options; the manager adopts them after all PreRequest handlers
	// have finished. A handler may set the exchange's error to abort
	// the send.
	PreRequest
	// AttemptError identifies the event that occurs when the transport
	// fails to produce a response for an attempt.
	//
	// When Manager fires AttemptError, the exchange's error is the
	// transport error and its response is nil. Changes made by
	// AttemptError handlers are discarded.
	AttemptError
	// Response identifies the event that occurs after each attempt
	// which produced a response, whatever its status.
	//
	// When Manager fires Response, the exchange's next attempt is set to
	// the request just sent. Response handlers may replace the
	// response, nominate a different next attempt, set the next attempt
	// to nil to prevent a retry, or change the options. Setting the
	// exchange's error aborts the send.
	Response
	// AfterSend identifies the event that occurs once at the end of each
	// logical send, whatever its outcome.
	//
	// When Manager fires AfterSend, the exchange holds the final
	// request, response, options, and error. Changes made by AfterSend
	// handlers are discarded.
	AfterSend
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeSend",
	"PreRequest",
	"AttemptError",
	"Response",
	"AfterSend",
}

// Events returns a slice containing all events which can occur during a
// logical send, in the order in which they would occur.
func Events() []Event {
	return []Event{
		BeforeSend,
		PreRequest,
		AttemptError,
		Response,
		AfterSend,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
