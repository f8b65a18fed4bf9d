// Package metrics holds the prometheus collectors of one client instance.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vnc_client"

// Metrics groups the client collectors.
type Metrics struct {
	Requests  *prometheus.CounterVec
	Failovers *prometheus.CounterVec
	Reauths   prometheus.Counter
	Retries   *prometheus.CounterVec
	Discovery prometheus.Counter
}

// New registers the collectors on reg. A nil reg gets a private registry so
// that several clients can coexist in one process.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	factory := promauto.With(reg)

	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Calls completed against the API server, by method and final status.",
			},
			[]string{"method", "status"},
		),
		Failovers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "failovers_total",
				Help:      "Times the host pool adopted a different active host.",
			},
			[]string{"host"},
		),
		Reauths: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reauthentications_total",
				Help:      "Logins triggered by a 401 answer.",
			},
		),
		Retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Backoff retries, by reason.",
			},
			[]string{"reason"},
		),
		Discovery: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discovery_fetches_total",
				Help:      "Discovery document fetches.",
			},
		),
	}
}

// ObserveRequest counts one completed call. status 0 means no answer.
func (m *Metrics) ObserveRequest(method string, status int) {
	label := "none"
	if status > 0 {
		label = strconv.Itoa(status)
	}

	m.Requests.WithLabelValues(method, label).Inc()
}

// ObserveFailover counts one adopted host.
func (m *Metrics) ObserveFailover(_, to string) {
	m.Failovers.WithLabelValues(to).Inc()
}

// ObserveRetry counts one backoff retry.
func (m *Metrics) ObserveRetry(reason string) {
	m.Retries.WithLabelValues(reason).Inc()
}
