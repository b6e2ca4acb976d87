// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apiconn

import (
	"context"
	"net/url"

	"github.com/gogama/apiconn/request"
	"github.com/gogama/apiconn/transport"
)

// Sender is the interface that wraps the basic Send method.
//
// Send sends one logical request, with retries, and returns the final
// response. See Manager.Send for the full contract.
type Sender interface {
	Send(ctx context.Context, r *request.Request, opts ...Option) (*request.Response, error)
}

// BatchSender is the interface that wraps the basic SendAll method.
type BatchSender interface {
	SendAll(ctx context.Context, reqs map[string]*request.Request, opts map[string][]Option) (map[string]*request.Response, error)
}

// Getter is the interface that wraps the basic Get method.
type Getter interface {
	Get(ctx context.Context, uri string, opts ...Option) (*request.Response, error)
}

// Poster is the interface that wraps the basic Post method.
type Poster interface {
	Post(ctx context.Context, uri, contentType string, body interface{}, opts ...Option) (*request.Response, error)
}

// IdleCloser is the interface that wraps the basic CloseIdleConnections
// method.
type IdleCloser interface {
	CloseIdleConnections()
}

// Executor is the interface that groups Send, SendAll, Get, Post, and
// CloseIdleConnections. Manager is an Executor.
type Executor interface {
	Sender
	BatchSender
	Getter
	Poster
	IdleCloser
}

// Do builds a request from method, uri, and body and sends it with s.
// The uri may be relative to the base URI.
//
// The body parameter may be nil for an empty body, or any of the types
// supported by request.BodyBytes: string, []byte, io.Reader, and
// io.ReadCloser.
func Do(ctx context.Context, s Sender, method, uri string, body interface{}, opts ...Option) (*request.Response, error) {
	r, err := request.NewRequest(method, uri, body)
	if err != nil {
		return nil, err
	}
	return s.Send(ctx, r, opts...)
}

// Get uses s to issue a GET to uri.
func Get(ctx context.Context, s Sender, uri string, opts ...Option) (*request.Response, error) {
	return Do(ctx, s, "GET", uri, nil, opts...)
}

// Head uses s to issue a HEAD to uri.
func Head(ctx context.Context, s Sender, uri string, opts ...Option) (*request.Response, error) {
	return Do(ctx, s, "HEAD", uri, nil, opts...)
}

// Delete uses s to issue a DELETE to uri.
func Delete(ctx context.Context, s Sender, uri string, opts ...Option) (*request.Response, error) {
	return Do(ctx, s, "DELETE", uri, nil, opts...)
}

// Post uses s to issue a POST to uri with the given content type and
// body.
func Post(ctx context.Context, s Sender, uri, contentType string, body interface{}, opts ...Option) (*request.Response, error) {
	return withBody(ctx, s, "POST", uri, contentType, body, opts)
}

// Put uses s to issue a PUT to uri with the given content type and
// body.
func Put(ctx context.Context, s Sender, uri, contentType string, body interface{}, opts ...Option) (*request.Response, error) {
	return withBody(ctx, s, "PUT", uri, contentType, body, opts)
}

// PostForm uses s to issue a POST to uri, with data's keys and values
// URL-encoded as the request body.
func PostForm(ctx context.Context, s Sender, uri string, data url.Values, opts ...Option) (*request.Response, error) {
	return Post(ctx, s, uri, "application/x-www-form-urlencoded", data.Encode(), opts...)
}

func withBody(ctx context.Context, s Sender, method, uri, contentType string, body interface{}, opts []Option) (*request.Response, error) {
	r, err := request.NewRequest(method, uri, body)
	if err != nil {
		return nil, err
	}
	return s.Send(ctx, r.WithHeader("Content-Type", contentType), opts...)
}

// Get issues a GET to uri. See the package-level Get.
func (m *Manager) Get(ctx context.Context, uri string, opts ...Option) (*request.Response, error) {
	return Get(ctx, m, uri, opts...)
}

// Post issues a POST to uri. See the package-level Post.
func (m *Manager) Post(ctx context.Context, uri, contentType string, body interface{}, opts ...Option) (*request.Response, error) {
	return Post(ctx, m, uri, contentType, body, opts...)
}

// CloseIdleConnections closes idle connections of the manager's
// transport, if it is able to.
func (m *Manager) CloseIdleConnections() {
	if ic, ok := m.transport().(transport.IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
