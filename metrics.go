// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gsclient

import (
	"errors"

	"github.com/gogama/gsclient/callback"
	"github.com/gogama/gsclient/request"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "gsclient"

// Metrics collects Prometheus metrics about a Client. Create it with
// NewMetrics and set it on Client.Metrics before the client is used.
// A nil *Metrics collects nothing.
type Metrics struct {
	reg prometheus.Registerer

	// Attempts counts request attempts by result kind.
	Attempts *prometheus.CounterVec
	// Retries counts retries scheduled after a failed attempt.
	Retries prometheus.Counter
	// Executions observes the duration of request executions, from the
	// first attempt to the final result, by mode.
	Executions *prometheus.HistogramVec
	// Pending is the number of requests waiting in the dispatcher.
	Pending prometheus.Gauge
	// Domains is the number of running event domains.
	Domains prometheus.Gauge
	// Events counts event loop notifications by domain and outcome.
	Events *prometheus.CounterVec
}

// NewMetrics creates the client metrics and registers them with reg. A
// nil reg selects prometheus.DefaultRegisterer.
//
// NewMetrics panics if a metric cannot be registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		reg: reg,
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "attempts_total",
			Help:      "Request attempts by result kind.",
		}, []string{"kind"}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "retries_total",
			Help:      "Retries scheduled after a failed attempt.",
		}),
		Executions: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "execution_seconds",
			Help:      "Duration of request executions including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"mode"}),
		Pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "dispatcher_pending",
			Help:      "Requests waiting in the dispatcher.",
		}),
		Domains: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "event_domains",
			Help:      "Running event domains.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Event loop notifications by domain and outcome.",
		}, []string{"domain", "outcome"}),
	}
	reg.MustRegister(m.Attempts, m.Retries, m.Executions, m.Pending, m.Domains, m.Events)
	return m
}

func (m *Metrics) install(g *HandlerGroup) {
	g.PushBack(AfterAttempt, HandlerFunc(func(_ Event, e *request.Execution) {
		m.Attempts.WithLabelValues(e.Result.Kind.String()).Inc()
	}))
	g.PushBack(BeforeRetry, HandlerFunc(func(_ Event, _ *request.Execution) {
		m.Retries.Inc()
	}))
	g.PushBack(AfterExecutionEnd, HandlerFunc(func(_ Event, e *request.Execution) {
		mode := "async"
		if e.Synchronous {
			mode = "sync"
		}
		m.Executions.WithLabelValues(mode).Observe(e.Duration().Seconds())
	}))
}

// bindQueue exports the backlog of q. Only the first queue bound to a
// registry is exported.
func (m *Metrics) bindQueue(q *callback.Queue) {
	backlog := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "callback_backlog",
		Help:      "Callbacks waiting to be drained.",
	}, func() float64 {
		return float64(q.Len())
	})
	if err := m.reg.Register(backlog); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			panic(err)
		}
	}
}

func (m *Metrics) setPending(n int) {
	if m != nil {
		m.Pending.Set(float64(n))
	}
}

func (m *Metrics) setDomains(n int) {
	if m != nil {
		m.Domains.Set(float64(n))
	}
}

func (m *Metrics) eventReceived(domain string) {
	if m != nil {
		m.Events.WithLabelValues(domain, "received").Inc()
	}
}

func (m *Metrics) eventError(domain string) {
	if m != nil {
		m.Events.WithLabelValues(domain, "error").Inc()
	}
}
