// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/gogama/apiconn/uri"
)

// A Request is an immutable HTTP request value.
//
// Create a Request with NewRequest or NewRequestURI, and derive
// modified copies with the With methods. Accessors return copies of
// the reference-typed fields (header and body), so a Request cannot be
// modified after it has been created.
//
// A nil *Request is never valid.
type Request struct {
	method string
	uri    *uri.URI
	header http.Header
	body   []byte
}

// NewRequest returns a new Request given a method, a URI reference, and
// an optional body.
//
// An empty method means GET. The URI may be relative, in which case it
// is expected to be resolved against a base URI before the request is
// sent. If rawURI cannot be parsed, the error has type
// *uri.InvalidURIError.
//
// Parameter body may be nil (empty body), or it may be a string,
// []byte, io.Reader, or io.ReadCloser. See BodyBytes.
func NewRequest(method, rawURI string, body interface{}) (*Request, error) {
	u, err := uri.Parse(rawURI)
	if err != nil {
		return nil, err
	}
	return NewRequestURI(method, u, body)
}

// NewRequestURI is like NewRequest but takes an already parsed URI.
func NewRequestURI(method string, u *uri.URI, body interface{}) (*Request, error) {
	if method == "" {
		method = http.MethodGet
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("apiconn/request: invalid method %q", method)
	}
	if u == nil {
		u = &uri.URI{}
	}
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	return &Request{
		method: method,
		uri:    u,
		header: make(http.Header),
		body:   b,
	}, nil
}

// Method returns the HTTP method.
func (r *Request) Method() string { return r.method }

// URI returns the request target. URI values are immutable, so the
// returned value may be freely shared.
func (r *Request) URI() *uri.URI { return r.uri }

// Header returns a copy of the request header.
func (r *Request) Header() http.Header { return r.header.Clone() }

// HeaderValue returns the first value associated with the given header
// key, or "" if there is none.
func (r *Request) HeaderValue(key string) string { return r.header.Get(key) }

// Body returns a copy of the request body, or nil if the request has no
// body.
func (r *Request) Body() []byte {
	if r.body == nil {
		return nil
	}
	b := make([]byte, len(r.body))
	copy(b, r.body)
	return b
}

// ContentLength returns the length of the request body.
func (r *Request) ContentLength() int { return len(r.body) }

// WithMethod returns a copy of r with the method replaced. It panics if
// method is not a valid HTTP token.
func (r *Request) WithMethod(method string) *Request {
	if method == "" {
		method = http.MethodGet
	}
	if !validMethod(method) {
		panic(fmt.Sprintf("apiconn/request: invalid method %q", method))
	}
	r2 := r.clone()
	r2.method = method
	return r2
}

// WithURI returns a copy of r with the target URI replaced.
func (r *Request) WithURI(u *uri.URI) *Request {
	if u == nil {
		panic("apiconn/request: nil URI")
	}
	r2 := r.clone()
	r2.uri = u
	return r2
}

// WithHeader returns a copy of r in which the header key is set to the
// single value given, replacing any existing values. It panics if key
// is not a valid header field name or value is not a valid header
// field value.
func (r *Request) WithHeader(key, value string) *Request {
	if !httpguts.ValidHeaderFieldName(key) {
		panic(fmt.Sprintf("apiconn/request: invalid header name %q", key))
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		panic(fmt.Sprintf("apiconn/request: invalid value for header %q", key))
	}
	r2 := r.clone()
	r2.header = r.header.Clone()
	r2.header.Set(key, value)
	return r2
}

// WithoutHeader returns a copy of r with the header key removed. If r
// has no such header, r itself is returned.
func (r *Request) WithoutHeader(key string) *Request {
	if _, ok := r.header[http.CanonicalHeaderKey(key)]; !ok {
		return r
	}
	r2 := r.clone()
	r2.header = r.header.Clone()
	r2.header.Del(key)
	return r2
}

// WithBody returns a copy of r with the body replaced. Parameter body
// accepts the same types as NewRequest.
func (r *Request) WithBody(body interface{}) (*Request, error) {
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	r2 := r.clone()
	r2.body = b
	return r2, nil
}

// WithBasicAuth returns a copy of r whose Authorization header uses
// HTTP Basic Authentication with the provided username and password.
//
// With HTTP Basic Authentication the provided username and password
// are not encrypted.
func (r *Request) WithBasicAuth(username, password string) *Request {
	return r.WithHeader("Authorization", "Basic "+basicAuth(username, password))
}

// WithBearerToken returns a copy of r whose Authorization header
// carries the given bearer token.
func (r *Request) WithBearerToken(token string) *Request {
	return r.WithHeader("Authorization", "Bearer "+token)
}

// Equal reports whether r and s describe the same HTTP request: the
// same method, the same URI text, the same header values in the same
// order, and the same body.
func (r *Request) Equal(s *Request) bool {
	if r == s {
		return true
	}
	if r == nil || s == nil {
		return false
	}
	if r.method != s.method || r.uri.String() != s.uri.String() {
		return false
	}
	if !bytes.Equal(r.body, s.body) || len(r.header) != len(s.header) {
		return false
	}
	for k, vs := range r.header {
		ws, ok := s.header[k]
		if !ok || len(vs) != len(ws) {
			return false
		}
		for i := range vs {
			if vs[i] != ws[i] {
				return false
			}
		}
	}
	return true
}

// ToHTTP creates a lower-level net/http request corresponding to r. The
// context of the new request is set to ctx, which may not be nil. A
// fresh body reader is created on each call, so the result can be sent
// independently of any previous result.
func (r *Request) ToHTTP(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if len(r.body) > 0 {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, r.uri.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header = r.header.Clone()
	return req, nil
}

func (r *Request) String() string {
	return r.method + " " + r.uri.String()
}

func (r *Request) clone() *Request {
	r2 := new(Request)
	*r2 = *r
	return r2
}

// basicAuth is lifted verbatim from net/http/client.go.
//
// See 2 (end of page 4) https://www.ietf.org/rfc/rfc2617.txt
// "To receive authorization, the client sends the userid and password,
// separated by a single colon (":") character, within a base64
// encoded string in the credentials."
// It is not meant to be urlencoded.
func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}

func validMethod(method string) bool {
	return strings.IndexFunc(method, isNotToken) == -1
}

func isNotToken(r rune) bool {
	return !httpguts.IsTokenRune(r)
}
