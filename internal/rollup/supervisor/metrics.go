package supervisor

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the Prometheus collectors the Supervisor updates on every
// input. Construct once per process and register with a registry (or
// prometheus.DefaultRegisterer) before running.
type Metrics struct {
	InputsProcessed prometheus.Counter
	InputsAccepted  prometheus.Counter
	InputsRejected  prometheus.Counter
	HandlerDuration prometheus.Histogram
}

// NewMetrics builds a fresh Metrics set with the rollapp_host namespace.
func NewMetrics() *Metrics {
	return &Metrics{
		InputsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rollapp_host",
			Name:      "inputs_processed_total",
			Help:      "Total number of inputs the supervisor has received from the rollup.",
		}),
		InputsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rollapp_host",
			Name:      "inputs_accepted_total",
			Help:      "Total number of inputs resolved with FinishStatus Accept.",
		}),
		InputsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rollapp_host",
			Name:      "inputs_rejected_total",
			Help:      "Total number of inputs resolved with FinishStatus Reject.",
		}),
		HandlerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rollapp_host",
			Name:      "handler_duration_seconds",
			Help:      "Time spent inside the application handler for one input.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// MustRegister registers every collector with reg.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(m.InputsProcessed, m.InputsAccepted, m.InputsRejected, m.HandlerDuration)
}
