package reliability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "edge_engine_client_requests_total",
		Help: "Total requests attempted per reliability client.",
	}, []string{"client"})

	successesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "edge_engine_client_successes_total",
		Help: "Total successful requests per reliability client.",
	}, []string{"client"})

	failuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "edge_engine_client_failures_total",
		Help: "Total failed requests per reliability client.",
	}, []string{"client"})

	retriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "edge_engine_client_retries_total",
		Help: "Total retry attempts per reliability client.",
	}, []string{"client"})

	breakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "edge_engine_client_breaker_state",
		Help: "Circuit breaker state per client: 0=closed, 1=half-open, 2=open.",
	}, []string{"client"})
)

func init() {
	prometheus.MustRegister(requestsTotal, successesTotal, failuresTotal, retriesTotal, breakerState)
}

// Metrics bundles the label-bound counters for one named client.
type Metrics struct {
	name string
}

func newMetrics(name string) *Metrics {
	return &Metrics{name: name}
}

func (m *Metrics) incRequests()  { requestsTotal.WithLabelValues(m.name).Inc() }
func (m *Metrics) incSuccesses() { successesTotal.WithLabelValues(m.name).Inc() }
func (m *Metrics) incFailures()  { failuresTotal.WithLabelValues(m.name).Inc() }
func (m *Metrics) incRetries()   { retriesTotal.WithLabelValues(m.name).Inc() }

func (m *Metrics) setBreakerState(state gobreaker.State) {
	var v float64
	switch state {
	case gobreaker.StateClosed:
		v = 0
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	}
	breakerState.WithLabelValues(m.name).Set(v)
}
