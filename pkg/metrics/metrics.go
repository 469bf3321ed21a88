// Package metrics owns the Prometheus registry of a service. All recording
// methods accept a nil receiver so components can run without metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess   = "success"
	OutcomeRetry     = "retry"
	OutcomeFailure   = "failure"
	OutcomePermanent = "permanent"

	SagaConfirmed  = "confirmed"
	SagaCancelled  = "cancelled"
	SagaIdempotent = "idempotent"
	SagaRejected   = "rejected"

	ReconcileReleased  = "released"
	ReconcileDrift     = "drift"
	ReconcileFailed    = "failed"
	ReconcileConfirmed = "confirmed"
	ReconcileCancelled = "cancelled"
)

type Metrics struct {
	registry             *prometheus.Registry
	requests             *prometheus.CounterVec
	durations            *prometheus.HistogramVec
	remoteCalls          *prometheus.CounterVec
	sagaOutcomes         *prometheus.CounterVec
	compensationFailures prometheus.Counter
	lockTransitions      *prometheus.CounterVec
	reconciled           *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed.",
		}, []string{"method", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_call_attempts_total",
			Help:      "Attempts made against the reservations service, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		sagaOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_saga_outcomes_total",
			Help:      "Booking create requests by outcome.",
		}, []string{"outcome"}),
		compensationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compensation_failures_total",
			Help:      "Compensating releases that could not be delivered.",
		}),
		lockTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_lock_transitions_total",
			Help:      "Reservation lock state transitions actually applied.",
		}, []string{"to"}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciled_bookings_total",
			Help:      "Bookings resolved by the reconciliation sweep, by result.",
		}, []string{"result"}),
	}

	registry.MustRegister(
		m.requests,
		m.durations,
		m.remoteCalls,
		m.sagaOutcomes,
		m.compensationFailures,
		m.lockTransitions,
		m.reconciled,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RemoteCall(operation, outcome string) {
	if m == nil {
		return
	}
	m.remoteCalls.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) SagaOutcome(outcome string) {
	if m == nil {
		return
	}
	m.sagaOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CompensationFailed() {
	if m == nil {
		return
	}
	m.compensationFailures.Inc()
}

func (m *Metrics) LockTransition(to string) {
	if m == nil {
		return
	}
	m.lockTransitions.WithLabelValues(to).Inc()
}

func (m *Metrics) Reconciled(result string) {
	if m == nil {
		return
	}
	m.reconciled.WithLabelValues(result).Inc()
}

// Middleware records request counts and latency for every request it wraps.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		m.requests.WithLabelValues(r.Method, strconv.Itoa(recorder.status)).Inc()
		m.durations.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
