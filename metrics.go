package wssession

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	transitions *prometheus.CounterVec
	sent        prometheus.Counter
	received    prometheus.Counter
}

func newMetrics() *metrics {
	return &metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wssession",
			Name:      "state_transitions_total",
			Help:      "Session state transitions by origin and destination state.",
		}, []string{"from", "to"}),
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wssession",
			Name:      "messages_sent_total",
			Help:      "Messages handed to the transport.",
		}),
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wssession",
			Name:      "messages_received_total",
			Help:      "Messages delivered to observers.",
		}),
	}
}

// register adds the collectors to reg. Collectors already registered by another session are
// reused so several sessions can share one registry.
func (m *metrics) register(reg prometheus.Registerer) error {
	var err error
	if m.transitions, err = registerOrReuse(reg, m.transitions); err != nil {
		return err
	}
	if m.sent, err = registerOrReuse(reg, m.sent); err != nil {
		return err
	}
	m.received, err = registerOrReuse(reg, m.received)
	return err
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return c, err
		}
		existing, ok := are.ExistingCollector.(C)
		if !ok {
			return c, err
		}
		return existing, nil
	}
	return c, nil
}

func (m *metrics) transition(from, to State) {
	m.transitions.WithLabelValues(from.String(), to.String()).Inc()
}
