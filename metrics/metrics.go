// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package metrics records Prometheus metrics for a request manager by
// installing itself as an event handler.
//
//	reg := prometheus.NewRegistry()
//	m, err := apiconn.Assemble(cfg, nil, metrics.NewCollector(reg))
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gogama/apiconn"
	"github.com/gogama/apiconn/transient"
)

// Send outcomes, used as the value of the outcome label.
const (
	OutcomeOK             = "ok"
	OutcomeBadResponse    = "bad_response"
	OutcomeTransportError = "transport_error"
	OutcomeInvalidOption  = "invalid_option"
	OutcomeError          = "error"
)

// A Collector counts sends, attempts, retries, responses, and transport
// errors, and observes send durations. It is safe for concurrent use.
type Collector struct {
	sendsTotal      *prometheus.CounterVec
	sendDuration    *prometheus.HistogramVec
	sendsInFlight   prometheus.Gauge
	attemptsTotal   *prometheus.CounterVec
	retriesTotal    *prometheus.CounterVec
	responsesTotal  *prometheus.CounterVec
	transportErrors *prometheus.CounterVec
}

// NewCollector creates a collector and registers its metrics with reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Collector{
		sendsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apiconn_sends_total",
				Help: "Total number of logical sends, by outcome.",
			},
			[]string{"method", "outcome"},
		),
		sendDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apiconn_send_duration_seconds",
				Help:    "Duration of logical sends, including retries and waits.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "outcome"},
		),
		sendsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "apiconn_sends_in_flight",
				Help: "Number of logical sends in progress.",
			},
		),
		attemptsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apiconn_attempts_total",
				Help: "Total number of attempts handed to the transport.",
			},
			[]string{"method"},
		),
		retriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apiconn_retries_total",
				Help: "Total number of attempts after the first of a send.",
			},
			[]string{"method"},
		),
		responsesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apiconn_responses_total",
				Help: "Total number of responses received, by status code.",
			},
			[]string{"method", "code"},
		),
		transportErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apiconn_transport_errors_total",
				Help: "Total number of attempts which failed in the transport, by transience category.",
			},
			[]string{"method", "category"},
		),
	}
}

// Install adds c to g for every event.
func (c *Collector) Install(g *apiconn.HandlerGroup) {
	for _, evt := range apiconn.Events() {
		g.PushBack(evt, c)
	}
}

func (c *Collector) Handle(evt apiconn.Event, x *apiconn.Exchange) {
	method := x.Request.Method()
	switch evt {
	case apiconn.BeforeSend:
		c.sendsInFlight.Inc()
	case apiconn.PreRequest:
		c.attemptsTotal.WithLabelValues(method).Inc()
		if x.Attempt > 1 {
			c.retriesTotal.WithLabelValues(method).Inc()
		}
	case apiconn.AttemptError:
		c.transportErrors.WithLabelValues(method, transient.Categorize(x.Err).String()).Inc()
	case apiconn.Response:
		c.responsesTotal.WithLabelValues(method, strconv.Itoa(x.Response.StatusCode())).Inc()
	case apiconn.AfterSend:
		c.sendsInFlight.Dec()
		o := outcome(x)
		c.sendsTotal.WithLabelValues(method, o).Inc()
		c.sendDuration.WithLabelValues(method, o).Observe(time.Since(x.Start).Seconds())
	}
}

func outcome(x *apiconn.Exchange) string {
	var bad *apiconn.BadAPIResponseError
	var te *apiconn.TransportError
	var ioe *apiconn.InvalidOptionError
	switch {
	case x.Err == nil && x.Response != nil && !x.Response.OK():
		return OutcomeBadResponse
	case x.Err == nil:
		return OutcomeOK
	case errors.As(x.Err, &bad):
		return OutcomeBadResponse
	case errors.As(x.Err, &te):
		return OutcomeTransportError
	case errors.As(x.Err, &ioe):
		return OutcomeInvalidOption
	default:
		return OutcomeError
	}
}
