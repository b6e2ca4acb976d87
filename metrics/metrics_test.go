// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package metrics

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogama/apiconn"
	"github.com/gogama/apiconn/request"
	"github.com/gogama/apiconn/transport"
)

// scriptTransport answers each Exec with the next scripted outcome.
type scriptTransport struct {
	mu      sync.Mutex
	outputs []transport.Result
}

func (s *scriptTransport) Exec(_ context.Context, _ *request.Request) (*request.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.outputs[0]
	s.outputs = s.outputs[1:]
	return out.Response, out.Err
}

func (s *scriptTransport) ExecMultiple(ctx context.Context, rs map[string]*request.Request) map[string]transport.Result {
	m := make(map[string]transport.Result, len(rs))
	for k, r := range rs {
		resp, err := s.Exec(ctx, r)
		m[k] = transport.Result{Response: resp, Err: err}
	}
	return m
}

func status(code int) transport.Result {
	return transport.Result{Response: request.NewResponse(code, "", nil, nil)}
}

func newManager(c *Collector, outputs ...transport.Result) *apiconn.Manager {
	g := &apiconn.HandlerGroup{}
	c.Install(g)
	return &apiconn.Manager{
		Transport: &scriptTransport{outputs: outputs},
		Handlers:  g,
	}
}

func TestNewCollector(t *testing.T) {
	t.Run("registers", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		NewCollector(reg)
		// Vectors without observations are not gathered, the gauge is.
		n, err := testutil.GatherAndCount(reg)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
	t.Run("duplicate registration panics", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		NewCollector(reg)
		assert.Panics(t, func() { NewCollector(reg) })
	})
}

func TestCollectorInstall(t *testing.T) {
	g := &apiconn.HandlerGroup{}
	NewCollector(prometheus.NewRegistry()).Install(g)
	for _, evt := range apiconn.Events() {
		assert.Equal(t, 1, g.Len(evt), evt.String())
	}
}

func TestCollectorSend(t *testing.T) {
	t.Run("success after retry", func(t *testing.T) {
		c := NewCollector(prometheus.NewRegistry())
		m := newManager(c, status(503), status(200))

		resp, err := m.Get(context.Background(), "http://example.com/a")

		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode())
		assert.Equal(t, 2.0, testutil.ToFloat64(c.attemptsTotal.WithLabelValues("GET")))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.retriesTotal.WithLabelValues("GET")))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.responsesTotal.WithLabelValues("GET", "503")))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.responsesTotal.WithLabelValues("GET", "200")))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.sendsTotal.WithLabelValues("GET", OutcomeOK)))
		assert.Equal(t, 0.0, testutil.ToFloat64(c.sendsInFlight))
		assert.Equal(t, 1, testutil.CollectAndCount(c.sendDuration))
	})
	t.Run("bad response", func(t *testing.T) {
		c := NewCollector(prometheus.NewRegistry())
		m := newManager(c, status(404), status(404), status(404))

		_, err := m.Get(context.Background(), "http://example.com/a")

		var bad *apiconn.BadAPIResponseError
		require.ErrorAs(t, err, &bad)
		assert.Equal(t, 3.0, testutil.ToFloat64(c.attemptsTotal.WithLabelValues("GET")))
		assert.Equal(t, 3.0, testutil.ToFloat64(c.responsesTotal.WithLabelValues("GET", "404")))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.sendsTotal.WithLabelValues("GET", OutcomeBadResponse)))
	})
	t.Run("bad response without exceptions", func(t *testing.T) {
		c := NewCollector(prometheus.NewRegistry())
		m := newManager(c, status(500))

		_, err := m.Get(context.Background(), "http://example.com/a", apiconn.WithExceptions(false), apiconn.WithMaxRetries(1))

		require.NoError(t, err)
		assert.Equal(t, 1.0, testutil.ToFloat64(c.sendsTotal.WithLabelValues("GET", OutcomeBadResponse)))
	})
	t.Run("transport error", func(t *testing.T) {
		c := NewCollector(prometheus.NewRegistry())
		m := newManager(c,
			transport.Result{Err: syscall.ECONNRESET},
			transport.Result{Err: errors.New("permanent")},
		)

		_, err := m.Get(context.Background(), "http://example.com/a")

		var te *apiconn.TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, 1.0, testutil.ToFloat64(c.transportErrors.WithLabelValues("GET", "conn_reset")))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.transportErrors.WithLabelValues("GET", "not")))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.sendsTotal.WithLabelValues("GET", OutcomeTransportError)))
	})
	t.Run("batch", func(t *testing.T) {
		c := NewCollector(prometheus.NewRegistry())
		m := newManager(c, status(200), status(201))
		a, _ := request.NewRequest("POST", "http://example.com/a", nil)
		b, _ := request.NewRequest("POST", "http://example.com/b", nil)

		_, err := m.SendAll(context.Background(), map[string]*request.Request{"a": a, "b": b}, nil)

		require.NoError(t, err)
		assert.Equal(t, 2.0, testutil.ToFloat64(c.sendsTotal.WithLabelValues("POST", OutcomeOK)))
		assert.Equal(t, 0.0, testutil.ToFloat64(c.sendsInFlight))
	})
}

func TestOutcome(t *testing.T) {
	testCases := []struct {
		name     string
		x        apiconn.Exchange
		expected string
	}{
		{"ok", apiconn.Exchange{Response: request.NewResponse(204, "", nil, nil)}, OutcomeOK},
		{"no response", apiconn.Exchange{}, OutcomeOK},
		{"silent failure", apiconn.Exchange{Response: request.NewResponse(400, "", nil, nil)}, OutcomeBadResponse},
		{"bad response", apiconn.Exchange{Err: &apiconn.BadAPIResponseError{StatusCode: 400}}, OutcomeBadResponse},
		{"transport", apiconn.Exchange{Err: &apiconn.TransportError{Err: syscall.ECONNREFUSED}}, OutcomeTransportError},
		{"invalid option", apiconn.Exchange{Err: &apiconn.InvalidOptionError{Option: "MaxRetries"}}, OutcomeInvalidOption},
		{"other", apiconn.Exchange{Err: errors.New("handler abort")}, OutcomeError},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, outcome(&testCase.x))
		})
	}
}
