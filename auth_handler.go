// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apiconn

import "github.com/gogama/apiconn/auth"

// An AuthHandler wires authentication into a Manager.
//
// On PreRequest it decorates the request with the send's
// Authenticator, unless the send is anonymous. On Response it asks the
// Chain for an authenticator supporting the response and, if the
// reaction produces a different request, nominates it as the next
// attempt. Nominating a different request resets the retry budget.
//
// Install it with Install, or push it for both events yourself.
type AuthHandler struct {
	Chain *auth.Chain
}

// Install adds h to g for PreRequest and Response.
func (h *AuthHandler) Install(g *HandlerGroup) {
	g.PushBack(PreRequest, h)
	g.PushBack(Response, h)
}

func (h *AuthHandler) Handle(evt Event, x *Exchange) {
	if x.Options.Anonymous {
		return
	}
	switch evt {
	case PreRequest:
		a := x.Options.Authenticator
		if a == nil {
			return
		}
		r, err := a.Apply(x.Context(), x.Request, nil)
		if err != nil {
			x.Err = err
			return
		}
		x.Request = r
	case Response:
		a := h.Chain.React(x.Response)
		if a == nil {
			return
		}
		r, err := a.Apply(x.Context(), x.Request, x.Response)
		if err != nil {
			x.Err = err
			return
		}
		if r != nil && !r.Equal(x.Request) {
			x.NextAttempt = r
		}
	}
}
