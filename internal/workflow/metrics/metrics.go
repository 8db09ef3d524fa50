package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers workflow traffic.
type Metrics struct {
	Transitions      *prometheus.CounterVec
	RejectedCommands *prometheus.CounterVec
	Created          prometheus.Counter
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landrec_workflow_transitions_total",
			Help: "Applied workflow moves by origin and target status",
		}, []string{"from", "to"}),

		RejectedCommands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landrec_workflow_commands_rejected_total",
			Help: "Workflow commands rejected by command and error code",
		}, []string{"command", "code"}),

		Created: factory.NewCounter(prometheus.CounterOpts{
			Name: "landrec_transactions_created_total",
			Help: "Transactions opened at intake",
		}),
	}
}

func (m *Metrics) IncrementTransition(from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to).Inc()
	}
}

func (m *Metrics) IncrementRejected(command, code string) {
	if m != nil {
		m.RejectedCommands.WithLabelValues(command, code).Inc()
	}
}

func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.Created.Inc()
	}
}
