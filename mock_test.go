// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apiconn

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/gogama/apiconn/request"
	"github.com/gogama/apiconn/transport"
)

type mockTransport struct {
	mock.Mock
}

func newMockTransport(t *testing.T) *mockTransport {
	m := &mockTransport{}
	m.Test(t)
	return m
}

func (m *mockTransport) Exec(_ context.Context, r *request.Request) (*request.Response, error) {
	args := m.Called(r)
	err := args.Error(1)
	if resp, ok := args.Get(0).(*request.Response); ok {
		return resp, err
	}
	return nil, err
}

// ExecMultiple sends each request through Exec, in key order, so tests
// set their expectations on Exec alone.
func (m *mockTransport) ExecMultiple(ctx context.Context, rs map[string]*request.Request) map[string]transport.Result {
	keys := make([]string, 0, len(rs))
	for k := range rs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	results := make(map[string]transport.Result, len(rs))
	for _, k := range keys {
		resp, err := m.Exec(ctx, rs[k])
		results[k] = transport.Result{Response: resp, Err: err}
	}
	return results
}

type mockTransportWithCloseIdleConnections struct {
	mockTransport
}

func (m *mockTransportWithCloseIdleConnections) CloseIdleConnections() {
	m.Called()
}

type mockAuthenticator struct {
	mock.Mock
}

func newMockAuthenticator(t *testing.T) *mockAuthenticator {
	m := &mockAuthenticator{}
	m.Test(t)
	return m
}

func (m *mockAuthenticator) Apply(_ context.Context, r *request.Request, resp *request.Response) (*request.Request, error) {
	args := m.Called(r, resp)
	err := args.Error(1)
	switch r2 := args.Get(0).(type) {
	case *request.Request:
		return r2, err
	case func(*request.Request, *request.Response) *request.Request:
		return r2(r, resp), err
	}
	return nil, err
}

func (m *mockAuthenticator) Supports(resp *request.Response) bool {
	args := m.Called(resp)
	return args.Bool(0)
}

func toURI(s string) interface{} {
	return mock.MatchedBy(func(r *request.Request) bool {
		return r.URI().String() == s
	})
}

func newRequest(t *testing.T, method, rawURI string) *request.Request {
	t.Helper()
	r, err := request.NewRequest(method, rawURI, nil)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func status(code int) *request.Response {
	return request.NewResponse(code, "", nil, nil)
}
