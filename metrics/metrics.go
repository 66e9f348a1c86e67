package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blogem/deskauth/models"
)

// ResultSuccess labels a flow that produced an AuthResult
const ResultSuccess = "success"

// Metrics records flow and callback counters. A nil *Metrics is a no-op.
type Metrics struct {
	flowsTotal     *prometheus.CounterVec
	callbacksTotal *prometheus.CounterVec
	flowDuration   prometheus.Histogram
}

// New creates the collectors and registers them on reg (DefaultRegisterer when nil)
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		flowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deskauth_flows_total",
			Help: "Authorization flows by result",
		}, []string{"result"}), // result: success|<error kind>

		callbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deskauth_callbacks_total",
			Help: "Loopback redirects by outcome",
		}, []string{"outcome"}),

		flowDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "deskauth_flow_duration_seconds",
			Help:    "Time from flow start to result, including the user in the browser",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
	}

	for _, c := range []prometheus.Collector{m.flowsTotal, m.callbacksTotal, m.flowDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ObserveFlow records a finished flow
func (m *Metrics) ObserveFlow(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.flowsTotal.WithLabelValues(result).Inc()
	m.flowDuration.Observe(elapsed.Seconds())
}

// ObserveCallback records a redirect that was handed to a waiting flow
func (m *Metrics) ObserveCallback(kind models.OutcomeKind) {
	if m == nil {
		return
	}
	m.callbacksTotal.WithLabelValues(string(kind)).Inc()
}
