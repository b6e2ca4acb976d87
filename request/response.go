// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"io"
	"net/http"
	"strconv"
	"strings"
)

// A Response is an immutable HTTP response value.
type Response struct {
	statusCode int
	reason     string
	header     http.Header
	body       []byte
}

// NewResponse returns a new Response. If reason is empty, the standard
// reason phrase for statusCode is used. The header and body are copied.
func NewResponse(statusCode int, reason string, header http.Header, body []byte) *Response {
	if reason == "" {
		reason = http.StatusText(statusCode)
	}
	if header == nil {
		header = make(http.Header)
	} else {
		header = header.Clone()
	}
	var b []byte
	if body != nil {
		b = make([]byte, len(body))
		copy(b, body)
	}
	return &Response{
		statusCode: statusCode,
		reason:     reason,
		header:     header,
		body:       b,
	}
}

// FromHTTP converts a net/http response to a Response, reading its body
// to the end and closing it. The reason phrase is taken from the status
// line, so "404 Not Found" gives "Not Found".
//
// If the body cannot be read, the error is returned together with a
// Response holding the status and header.
func FromHTTP(resp *http.Response) (*Response, error) {
	var body []byte
	var err error
	if resp.Body != nil {
		body, err = io.ReadAll(resp.Body)
		cerr := resp.Body.Close()
		if err == nil {
			err = cerr
		}
	}
	r := NewResponse(resp.StatusCode, reasonPhrase(resp.Status), resp.Header, nil)
	r.body = body
	return r, err
}

func reasonPhrase(status string) string {
	if i := strings.IndexByte(status, ' '); i >= 0 {
		return strings.TrimSpace(status[i+1:])
	}
	return ""
}

// StatusCode returns the HTTP status code.
func (r *Response) StatusCode() int { return r.statusCode }

// Reason returns the reason phrase.
func (r *Response) Reason() string { return r.reason }

// Header returns a copy of the response header.
func (r *Response) Header() http.Header { return r.header.Clone() }

// HeaderValue returns the first value of the given header key.
func (r *Response) HeaderValue(key string) string { return r.header.Get(key) }

// Body returns a copy of the response body.
func (r *Response) Body() []byte {
	if r.body == nil {
		return nil
	}
	b := make([]byte, len(r.body))
	copy(b, r.body)
	return b
}

// OK reports whether the status code is in the 2XX class.
func (r *Response) OK() bool {
	return 200 <= r.statusCode && r.statusCode < 300
}

func (r *Response) String() string {
	return strconv.Itoa(r.statusCode) + " " + r.reason
}
