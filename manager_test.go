// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apiconn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gogama/apiconn/auth"
	"github.com/gogama/apiconn/request"
	"github.com/gogama/apiconn/retry"
	"github.com/gogama/apiconn/uri"
)

func TestManagerSend(t *testing.T) {
	t.Run("happy path", testManagerSendHappyPath)
	t.Run("retry bound", testManagerSendRetryBound)
	t.Run("retry reset", testManagerSendRetryReset)
	t.Run("exceptions", testManagerSendExceptions)
	t.Run("invalid option", testManagerSendInvalidOption)
	t.Run("transport error", testManagerSendTransportError)
	t.Run("handlers", testManagerSendHandlers)
	t.Run("base URI", testManagerSendBaseURI)
	t.Run("context", testManagerSendContext)
	t.Run("defaults", testManagerSendDefaults)
	t.Run("logger", testManagerSendLogger)
}

func testManagerSendHappyPath(t *testing.T) {
	for _, code := range []int{200, 201, 204, 299} {
		t.Run(status(code).String(), func(t *testing.T) {
			mt := newMockTransport(t)
			ok := status(code)
			mt.On("Exec", toURI("http://example.com/a")).Return(ok, nil).Once()
			m := &Manager{Transport: mt}

			resp, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"))

			require.NoError(t, err)
			assert.Same(t, ok, resp)
			mt.AssertExpectations(t)
		})
	}
}

func testManagerSendRetryBound(t *testing.T) {
	t.Run("default budget", func(t *testing.T) {
		mt := newMockTransport(t)
		fail := status(503)
		mt.On("Exec", mock.Anything).Return(fail, nil).Times(3)
		m := &Manager{Transport: mt}

		resp, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"))

		var bad *BadAPIResponseError
		require.ErrorAs(t, err, &bad)
		assert.Equal(t, 503, bad.StatusCode)
		assert.Equal(t, "Service Unavailable", bad.Reason)
		assert.Same(t, fail, bad.Response)
		assert.Same(t, fail, resp)
		mt.AssertExpectations(t)
		mt.AssertNumberOfCalls(t, "Exec", 3)
	})
	t.Run("success within budget", func(t *testing.T) {
		mt := newMockTransport(t)
		mt.On("Exec", mock.Anything).Return(status(409), nil).Times(4)
		mt.On("Exec", mock.Anything).Return(status(200), nil).Once()
		m := &Manager{Transport: mt}

		resp, err := m.Send(context.Background(), newRequest(t, "PUT", "http://example.com/a"), WithMaxRetries(5))

		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode())
		mt.AssertNumberOfCalls(t, "Exec", 5)
	})
	t.Run("zero budget still makes one attempt", func(t *testing.T) {
		mt := newMockTransport(t)
		mt.On("Exec", mock.Anything).Return(status(500), nil).Once()
		m := &Manager{Transport: mt}

		_, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"), WithMaxRetries(0))

		var bad *BadAPIResponseError
		assert.ErrorAs(t, err, &bad)
		mt.AssertNumberOfCalls(t, "Exec", 1)
	})
	t.Run("ever-changing nomination", func(t *testing.T) {
		for _, exceptions := range []bool{true, false} {
			t.Run(fmt.Sprintf("exceptions=%t", exceptions), func(t *testing.T) {
				mt := newMockTransport(t)
				denied := status(401)
				mt.On("Exec", mock.Anything).Return(denied, nil)
				n := 0
				g := &HandlerGroup{}
				g.PushBack(Response, HandlerFunc(func(_ Event, x *Exchange) {
					n++
					x.NextAttempt = x.Request.WithBearerToken(fmt.Sprintf("tok%d", n))
				}))
				m := &Manager{Transport: mt, Handlers: g}

				resp, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"), WithExceptions(exceptions))

				mt.AssertNumberOfCalls(t, "Exec", 3)
				assert.Same(t, denied, resp)
				if exceptions {
					var bad *BadAPIResponseError
					require.ErrorAs(t, err, &bad)
					assert.Equal(t, 401, bad.StatusCode)
				} else {
					assert.NoError(t, err)
				}
			})
		}
	})
	t.Run("rotating bearer token", func(t *testing.T) {
		mt := newMockTransport(t)
		mt.On("Exec", mock.Anything).Return(status(401), nil)
		fetches := 0
		bearer := auth.NewBearer(auth.TokenSourceFunc(func(context.Context) (string, error) {
			fetches++
			return fmt.Sprintf("tok%d", fetches), nil
		}), 0)
		g := &HandlerGroup{}
		(&AuthHandler{Chain: auth.NewChain(bearer)}).Install(g)
		m := &Manager{Transport: mt, Handlers: g, DefaultAuthenticator: bearer}

		_, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"), WithMaxRetries(4))

		var bad *BadAPIResponseError
		require.ErrorAs(t, err, &bad)
		mt.AssertNumberOfCalls(t, "Exec", 4)
	})
	t.Run("nomination withdrawn", func(t *testing.T) {
		mt := newMockTransport(t)
		mt.On("Exec", mock.Anything).Return(status(500), nil).Once()
		g := &HandlerGroup{}
		g.PushBack(Response, HandlerFunc(func(_ Event, x *Exchange) { x.NextAttempt = nil }))
		m := &Manager{Transport: mt, Handlers: g}

		_, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"))

		var bad *BadAPIResponseError
		assert.ErrorAs(t, err, &bad)
		mt.AssertNumberOfCalls(t, "Exec", 1)
	})
}

func testManagerSendRetryReset(t *testing.T) {
	mt := newMockTransport(t)
	mt.On("Exec", mock.Anything).Return(status(503), nil).Once()
	mt.On("Exec", mock.Anything).Return(status(401), nil).Once()
	mt.On("Exec", mock.Anything).Return(status(503), nil).Times(3)
	var retries, attempts []int
	var tags []interface{}
	g := &HandlerGroup{}
	g.PushBack(PreRequest, HandlerFunc(func(_ Event, x *Exchange) {
		retries = append(retries, x.Options.Retries)
		attempts = append(attempts, x.Attempt)
		tags = append(tags, x.Options.Tag)
	}))
	g.PushBack(Response, HandlerFunc(func(_ Event, x *Exchange) {
		if x.Response.StatusCode() == 401 {
			x.NextAttempt = x.Request.WithBearerToken("fresh")
		}
	}))
	m := &Manager{Transport: mt, Handlers: g}

	_, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"), WithTag("t"))

	var bad *BadAPIResponseError
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, 503, bad.StatusCode)
	assert.Equal(t, []int{0, 1, 0, 1, 2}, retries)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, attempts)
	assert.Equal(t, []interface{}{"t", "t", "t", "t", "t"}, tags)
	mt.AssertNumberOfCalls(t, "Exec", 5)
	calls := mt.Calls
	assert.Empty(t, calls[1].Arguments.Get(0).(*request.Request).HeaderValue("Authorization"))
	assert.Equal(t, "Bearer fresh", calls[2].Arguments.Get(0).(*request.Request).HeaderValue("Authorization"))
	assert.Equal(t, "Bearer fresh", calls[4].Arguments.Get(0).(*request.Request).HeaderValue("Authorization"))
}

func testManagerSendExceptions(t *testing.T) {
	mt := newMockTransport(t)
	fail := status(409)
	mt.On("Exec", mock.Anything).Return(fail, nil).Times(3)
	m := &Manager{Transport: mt}

	resp, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"), WithExceptions(false))

	assert.NoError(t, err)
	assert.Same(t, fail, resp)
	mt.AssertNumberOfCalls(t, "Exec", 3)
}

func testManagerSendInvalidOption(t *testing.T) {
	t.Run("negative max retries", func(t *testing.T) {
		mt := newMockTransport(t)
		m := &Manager{Transport: mt}

		resp, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"), WithMaxRetries(-1))

		assert.Nil(t, resp)
		var ioe *InvalidOptionError
		require.ErrorAs(t, err, &ioe)
		assert.Equal(t, "MaxRetries", ioe.Option)
		assert.Equal(t, -1, ioe.Value)
		mt.AssertNotCalled(t, "Exec", mock.Anything)
	})
	t.Run("nil request", func(t *testing.T) {
		mt := newMockTransport(t)
		var events []Event
		g := &HandlerGroup{}
		g.PushBack(BeforeSend, HandlerFunc(func(evt Event, _ *Exchange) { events = append(events, evt) }))
		m := &Manager{Transport: mt, Handlers: g}

		resp, err := m.Send(context.Background(), nil)

		assert.Nil(t, resp)
		var ioe *InvalidOptionError
		require.ErrorAs(t, err, &ioe)
		assert.Equal(t, "request", ioe.Option)
		assert.EqualError(t, err, "apiconn: invalid option request: must not be nil")
		assert.Empty(t, events)
		mt.AssertNotCalled(t, "Exec", mock.Anything)
	})
	t.Run("nil authenticator", func(t *testing.T) {
		mt := newMockTransport(t)
		m := &Manager{Transport: mt}

		_, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"), WithAuthenticator(nil))

		var ioe *InvalidOptionError
		require.ErrorAs(t, err, &ioe)
		assert.Equal(t, "Authenticator", ioe.Option)
		mt.AssertNotCalled(t, "Exec", mock.Anything)
	})
	t.Run("set by handler", func(t *testing.T) {
		mt := newMockTransport(t)
		g := &HandlerGroup{}
		g.PushBack(PreRequest, HandlerFunc(func(_ Event, x *Exchange) { x.Options.MaxRetries = -5 }))
		m := &Manager{Transport: mt, Handlers: g}

		_, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"))

		var ioe *InvalidOptionError
		require.ErrorAs(t, err, &ioe)
		mt.AssertNotCalled(t, "Exec", mock.Anything)
	})
}

func testManagerSendTransportError(t *testing.T) {
	t.Run("transient retried", func(t *testing.T) {
		mt := newMockTransport(t)
		mt.On("Exec", mock.Anything).Return(nil, syscall.ECONNRESET).Once()
		mt.On("Exec", mock.Anything).Return(status(200), nil).Once()
		m := &Manager{Transport: mt}

		resp, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"))

		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode())
		mt.AssertExpectations(t)
	})
	t.Run("transient exhausts budget", func(t *testing.T) {
		mt := newMockTransport(t)
		mt.On("Exec", mock.Anything).Return(nil, syscall.ECONNREFUSED).Times(3)
		m := &Manager{Transport: mt}

		resp, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"))

		assert.Nil(t, resp)
		var te *TransportError
		require.ErrorAs(t, err, &te)
		assert.ErrorIs(t, err, syscall.ECONNREFUSED)
		mt.AssertNumberOfCalls(t, "Exec", 3)
	})
	t.Run("non-transient propagates", func(t *testing.T) {
		mt := newMockTransport(t)
		boom := errors.New("boom")
		mt.On("Exec", mock.Anything).Return(nil, boom).Once()
		m := &Manager{Transport: mt}

		_, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"))

		var te *TransportError
		require.ErrorAs(t, err, &te)
		assert.Same(t, boom, te.Err)
		assert.Equal(t, "http://example.com/a", te.Request.URI().String())
		mt.AssertNumberOfCalls(t, "Exec", 1)
	})
	t.Run("retry policy never", func(t *testing.T) {
		mt := newMockTransport(t)
		mt.On("Exec", mock.Anything).Return(nil, syscall.ECONNRESET).Once()
		m := &Manager{Transport: mt, RetryPolicy: retry.Never}

		_, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"))

		assert.ErrorIs(t, err, syscall.ECONNRESET)
		mt.AssertNumberOfCalls(t, "Exec", 1)
	})
	t.Run("attempt error event", func(t *testing.T) {
		mt := newMockTransport(t)
		mt.On("Exec", mock.Anything).Return(nil, syscall.ECONNRESET).Once()
		mt.On("Exec", mock.Anything).Return(status(200), nil).Once()
		var seen []error
		g := &HandlerGroup{}
		g.PushBack(AttemptError, HandlerFunc(func(_ Event, x *Exchange) {
			assert.Nil(t, x.Response)
			seen = append(seen, x.Err)
			x.Err = nil
		}))
		m := &Manager{Transport: mt, Handlers: g}

		_, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"))

		require.NoError(t, err)
		assert.Equal(t, []error{syscall.ECONNRESET}, seen)
	})
}

func testManagerSendHandlers(t *testing.T) {
	t.Run("event order", func(t *testing.T) {
		mt := newMockTransport(t)
		mt.On("Exec", mock.Anything).Return(nil, syscall.ECONNRESET).Once()
		mt.On("Exec", mock.Anything).Return(status(500), nil).Once()
		mt.On("Exec", mock.Anything).Return(status(200), nil).Once()
		var evts []Event
		g := &HandlerGroup{}
		for _, evt := range Events() {
			g.PushBack(evt, HandlerFunc(func(evt Event, _ *Exchange) { evts = append(evts, evt) }))
		}
		m := &Manager{Transport: mt, Handlers: g}

		_, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"))

		require.NoError(t, err)
		assert.Equal(t, []Event{
			BeforeSend,
			PreRequest, AttemptError,
			PreRequest, Response,
			PreRequest, Response,
			AfterSend,
		}, evts)
	})
	t.Run("replace request", func(t *testing.T) {
		mt := newMockTransport(t)
		mt.On("Exec", mock.MatchedBy(func(r *request.Request) bool {
			return r.Method() == "POST" && r.HeaderValue("X-Foo") == "bar"
		})).Return(status(200), nil).Once()
		g := &HandlerGroup{}
		g.PushBack(PreRequest, HandlerFunc(func(_ Event, x *Exchange) {
			x.Request = x.Request.WithMethod("POST").WithHeader("X-Foo", "bar")
		}))
		m := &Manager{Transport: mt, Handlers: g}

		_, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"))

		require.NoError(t, err)
		mt.AssertExpectations(t)
	})
	t.Run("replace response", func(t *testing.T) {
		mt := newMockTransport(t)
		mt.On("Exec", mock.Anything).Return(status(500), nil).Once()
		replacement := status(202)
		g := &HandlerGroup{}
		g.PushBack(Response, HandlerFunc(func(_ Event, x *Exchange) { x.Response = replacement }))
		m := &Manager{Transport: mt, Handlers: g}

		resp, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"))

		require.NoError(t, err)
		assert.Same(t, replacement, resp)
		mt.AssertNumberOfCalls(t, "Exec", 1)
	})
	t.Run("abort before attempt", func(t *testing.T) {
		mt := newMockTransport(t)
		abort := errors.New("abort")
		g := &HandlerGroup{}
		g.PushBack(PreRequest, HandlerFunc(func(_ Event, x *Exchange) { x.Err = abort }))
		m := &Manager{Transport: mt, Handlers: g}

		resp, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"))

		assert.Nil(t, resp)
		assert.Same(t, abort, err)
		mt.AssertNotCalled(t, "Exec", mock.Anything)
	})
	t.Run("abort after response", func(t *testing.T) {
		mt := newMockTransport(t)
		fail := status(500)
		mt.On("Exec", mock.Anything).Return(fail, nil).Once()
		abort := errors.New("abort")
		g := &HandlerGroup{}
		g.PushBack(Response, HandlerFunc(func(_ Event, x *Exchange) { x.Err = abort }))
		m := &Manager{Transport: mt, Handlers: g}

		resp, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"))

		assert.Same(t, fail, resp)
		assert.Same(t, abort, err)
		mt.AssertNumberOfCalls(t, "Exec", 1)
	})
	t.Run("after send", func(t *testing.T) {
		mt := newMockTransport(t)
		fail := status(404)
		mt.On("Exec", mock.Anything).Return(fail, nil).Once()
		var final Exchange
		g := &HandlerGroup{}
		g.PushBack(AfterSend, HandlerFunc(func(_ Event, x *Exchange) { final = *x }))
		m := &Manager{Transport: mt, Handlers: g}

		_, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"), WithMaxRetries(1), WithTag(42))

		assert.Same(t, m, final.Manager)
		assert.Same(t, fail, final.Response)
		assert.Same(t, err, final.Err)
		assert.Equal(t, 1, final.Attempt)
		assert.Equal(t, 42, final.Options.Tag)
		assert.False(t, final.Start.IsZero())
	})
	t.Run("before send changes discarded", func(t *testing.T) {
		mt := newMockTransport(t)
		mt.On("Exec", toURI("http://example.com/a")).Return(status(200), nil).Once()
		g := &HandlerGroup{}
		g.PushBack(BeforeSend, HandlerFunc(func(_ Event, x *Exchange) {
			x.Request = x.Request.WithURI(uri.MustParse("http://example.com/other"))
			x.Options.MaxRetries = -1
		}))
		m := &Manager{Transport: mt, Handlers: g}

		_, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"))

		require.NoError(t, err)
		mt.AssertExpectations(t)
	})
}

func testManagerSendBaseURI(t *testing.T) {
	base := uri.MustParseBase("https://api.example.com/v2/")
	testCases := []struct {
		name     string
		ref      string
		opts     []Option
		expected string
	}{
		{"relative", "users/42", nil, "https://api.example.com/v2/users/42"},
		{"absolute path", "/status", nil, "https://api.example.com/status"},
		{"query only", "?page=2", nil, "https://api.example.com/v2/?page=2"},
		{"absolute URI", "http://other.example.com/x", nil, "http://other.example.com/x"},
		{"override", "users", []Option{WithBaseURI(uri.MustParseBase("http://localhost:8080/"))}, "http://localhost:8080/users"},
		{"disabled", "users", []Option{WithBaseURI(nil)}, "users"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			mt := newMockTransport(t)
			mt.On("Exec", toURI(testCase.expected)).Return(status(200), nil).Once()
			m := &Manager{Transport: mt, BaseURI: base}

			_, err := m.Send(context.Background(), newRequest(t, "GET", testCase.ref), testCase.opts...)

			require.NoError(t, err)
			mt.AssertExpectations(t)
		})
	}
}

func testManagerSendContext(t *testing.T) {
	t.Run("canceled before send", func(t *testing.T) {
		mt := newMockTransport(t)
		m := &Manager{Transport: mt}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := m.Send(ctx, newRequest(t, "GET", "http://example.com/a"))

		var te *TransportError
		require.ErrorAs(t, err, &te)
		assert.ErrorIs(t, err, context.Canceled)
		mt.AssertNotCalled(t, "Exec", mock.Anything)
	})
	t.Run("deadline during wait", func(t *testing.T) {
		mt := newMockTransport(t)
		mt.On("Exec", mock.Anything).Return(status(503), nil).Once()
		m := &Manager{
			Transport:   mt,
			RetryPolicy: retry.NewPolicy(retry.DefaultDecider, retry.NewFixedWaiter(time.Hour)),
		}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := m.Send(ctx, newRequest(t, "GET", "http://example.com/a"))

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		mt.AssertNumberOfCalls(t, "Exec", 1)
	})
}

func testManagerSendDefaults(t *testing.T) {
	mt := newMockTransport(t)
	mt.On("Exec", mock.Anything).Return(status(500), nil)
	m := &Manager{
		Transport: mt,
		Defaults:  []Option{WithMaxRetries(1), WithExceptions(false)},
	}

	_, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"))
	require.NoError(t, err)
	mt.AssertNumberOfCalls(t, "Exec", 1)

	_, err = m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"), WithMaxRetries(2))
	require.NoError(t, err)
	mt.AssertNumberOfCalls(t, "Exec", 3)
}

func testManagerSendLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	mt := newMockTransport(t)
	mt.On("Exec", mock.Anything).Return(status(418), nil).Once()
	m := &Manager{Transport: mt, Logger: &logger}

	_, err := m.Send(context.Background(), newRequest(t, "GET", "http://example.com/a"), WithMaxRetries(1), WithTag("mytag"))

	require.Error(t, err)
	out := buf.String()
	assert.Contains(t, out, `"message":"sending attempt"`)
	assert.Contains(t, out, `"message":"giving up"`)
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"message":"send failed"`)
	assert.Contains(t, out, `"tag":"mytag"`)
	assert.Contains(t, out, `"status":418`)
}
