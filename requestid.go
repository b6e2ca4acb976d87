// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apiconn

import "github.com/google/uuid"

// RequestIDHeader is the header set by RequestIDHandler.
const RequestIDHeader = "X-Request-ID"

// A RequestIDHandler stamps a random UUID into the X-Request-ID header
// of every request which does not already carry one. The header stays
// on the request the manager retries with, so every attempt of a send
// shares one id.
type RequestIDHandler struct {
	// NewID generates ids. If nil, uuid.NewString is used.
	NewID func() string
}

// Install adds h to g for PreRequest.
func (h *RequestIDHandler) Install(g *HandlerGroup) {
	g.PushBack(PreRequest, h)
}

func (h *RequestIDHandler) Handle(evt Event, x *Exchange) {
	if evt != PreRequest || x.Request.HeaderValue(RequestIDHeader) != "" {
		return
	}
	newID := h.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	x.Request = x.Request.WithHeader(RequestIDHeader, newID())
}
