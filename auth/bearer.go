// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gogama/apiconn/request"
)

// A TokenSource supplies bearer tokens. Token is called whenever the
// Bearer authenticator has no usable cached token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// The TokenSourceFunc type is an adapter to allow the use of ordinary
// functions as token sources.
type TokenSourceFunc func(ctx context.Context) (string, error)

// Token calls f(ctx).
func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken is a TokenSource which always returns the same token.
type StaticToken string

// Token returns t.
func (t StaticToken) Token(_ context.Context) (string, error) {
	return string(t), nil
}

// ErrEmptyToken is returned by Bearer when its token source returns an
// empty token without an error.
var ErrEmptyToken = errors.New("apiconn/auth: token source returned an empty token")

// Bearer is an authenticator which sends an OAuth 2.0 style bearer
// token (RFC 6750) in the Authorization header.
//
// The token is fetched from the TokenSource and cached. If the token is
// a JWT, its exp claim is read without verifying the signature, and a
// token expiring within Leeway is refreshed before use. Tokens which
// are not JWTs are cached until a 401 response invalidates them.
//
// Bearer supports every 401 response. The reaction invalidates the
// cached token if the rejected request carried it, and fetches a fresh
// one, so a rotated token yields a different request.
type Bearer struct {
	Source TokenSource
	Leeway time.Duration

	mu     sync.Mutex
	token  string
	expiry time.Time
	now    func() time.Time
}

// NewBearer returns a Bearer authenticator using the given token source
// and expiry leeway.
func NewBearer(src TokenSource, leeway time.Duration) *Bearer {
	if src == nil {
		panic("apiconn/auth: nil token source")
	}
	return &Bearer{Source: src, Leeway: leeway}
}

func (b *Bearer) Apply(ctx context.Context, r *request.Request, resp *request.Response) (*request.Request, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	// A rejected request only invalidates the token it carried. If a
	// concurrent reaction already replaced that token, the new one is
	// reused.
	if resp != nil && b.token != "" && r.HeaderValue("Authorization") == "Bearer "+b.token {
		b.token = ""
	}
	if !b.usable() {
		if err := b.refresh(ctx); err != nil {
			return nil, err
		}
	}
	return r.WithBearerToken(b.token), nil
}

func (b *Bearer) Supports(resp *request.Response) bool {
	return challenged(resp, "")
}

func (b *Bearer) usable() bool {
	if b.token == "" {
		return false
	}
	return b.expiry.IsZero() || b.clock().Add(b.Leeway).Before(b.expiry)
}

func (b *Bearer) refresh(ctx context.Context) error {
	token, err := b.Source.Token(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return ErrEmptyToken
	}
	b.token = token
	b.expiry = expiry(token)
	return nil
}

func (b *Bearer) clock() time.Time {
	if b.now != nil {
		return b.now()
	}
	return time.Now()
}

// expiry returns the exp claim of token if it is a JWT carrying one,
// and the zero time otherwise.
func expiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
