// Package metrics counts what a load run did: iterations, requests per
// operation and their latency. Collectors live on a private registry so
// tests and several runs in one process do not collide.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"restaurant-loadgen/internal/restaurant"
	"restaurant-loadgen/internal/target"
)

const namespace = "loadgen"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	// OutcomeAborted marks work cut short by the run ending.
	OutcomeAborted = "aborted"
)

type Metrics struct {
	registry *prometheus.Registry

	Iterations *prometheus.CounterVec
	Requests   *prometheus.CounterVec
	Latency    *prometheus.HistogramVec
	ActiveVUs  prometheus.Gauge
}

// New registers the load generator collectors, plus the Go runtime ones, on
// a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "iterations_total",
			Help:      "Scenario iterations by result.",
		}, []string{"result"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests issued to the restaurant service by operation and outcome.",
		}, []string{"op", "outcome"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request latency by operation.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"op"}),
		ActiveVUs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_vus",
			Help:      "Virtual users currently running iterations.",
		}),
	}
	m.registry.MustRegister(
		m.Iterations, m.Requests, m.Latency, m.ActiveVUs,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveIteration counts a finished iteration.
func (m *Metrics) ObserveIteration(err error) {
	m.Iterations.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) observeRequest(op string, start time.Time, err error) {
	m.Latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	m.Requests.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeAborted
	default:
		return OutcomeError
	}
}

// Instrument wraps t so every call is counted and timed.
func (m *Metrics) Instrument(t target.Target) target.Target {
	return &instrumented{next: t, m: m}
}

type instrumented struct {
	next target.Target
	m    *Metrics
}

func (i *instrumented) CreateRestaurant(ctx context.Context, r *restaurant.Restaurant) (restaurant.ID, error) {
	start := time.Now()
	id, err := i.next.CreateRestaurant(ctx, r)
	i.m.observeRequest(target.OpCreate, start, err)
	return id, err
}

func (i *instrumented) UpdateMenu(ctx context.Context, id restaurant.ID, menu *restaurant.Menu) error {
	start := time.Now()
	err := i.next.UpdateMenu(ctx, id, menu)
	i.m.observeRequest(target.OpUpdate, start, err)
	return err
}

func (i *instrumented) DeleteRestaurant(ctx context.Context, id restaurant.ID) error {
	start := time.Now()
	err := i.next.DeleteRestaurant(ctx, id)
	i.m.observeRequest(target.OpDelete, start, err)
	return err
}
