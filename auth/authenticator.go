// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gogama/apiconn/request"
)

// An Authenticator decorates requests with credentials and reacts to
// authentication challenges.
//
// Apply is called with a nil resp to decorate a request before it is
// sent. It is called with a non-nil resp, for which Supports returned
// true, to compute the request which should be sent next in reaction to
// resp. Returning a request equal to r means there is nothing better to
// try.
//
// Supports must be free of side effects.
//
// Implementations of Authenticator must be safe for concurrent use by
// multiple goroutines.
type Authenticator interface {
	Apply(ctx context.Context, r *request.Request, resp *request.Response) (*request.Request, error)
	Supports(resp *request.Response) bool
}

// Anonymous is the authenticator which does nothing. Its Apply returns
// the request unchanged and it supports no response.
var Anonymous Authenticator = anonymous{}

type anonymous struct{}

func (anonymous) Apply(_ context.Context, r *request.Request, _ *request.Response) (*request.Request, error) {
	return r, nil
}

func (anonymous) Supports(_ *request.Response) bool {
	return false
}

// Basic is an authenticator using HTTP Basic Authentication.
//
// It supports 401 responses carrying a Basic challenge. The credentials
// are static, so the reaction to a challenge can only repeat what was
// already sent, and a retry consumes the retry budget.
type Basic struct {
	Username string
	Password string
}

func (b Basic) Apply(_ context.Context, r *request.Request, _ *request.Response) (*request.Request, error) {
	return r.WithBasicAuth(b.Username, b.Password), nil
}

func (b Basic) Supports(resp *request.Response) bool {
	return challenged(resp, "basic")
}

// challenged reports whether resp is a 401 with a WWW-Authenticate
// challenge for scheme. An empty scheme matches any 401.
func challenged(resp *request.Response, scheme string) bool {
	if resp == nil || resp.StatusCode() != http.StatusUnauthorized {
		return false
	}
	if scheme == "" {
		return true
	}
	for _, c := range resp.Header().Values("WWW-Authenticate") {
		s := strings.TrimSpace(c)
		if i := strings.IndexByte(s, ' '); i >= 0 {
			s = s[:i]
		}
		if strings.EqualFold(s, scheme) {
			return true
		}
	}
	return false
}
