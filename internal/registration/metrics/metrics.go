package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for registration and land record sealing.
type Metrics struct {
	// Recording acts created by act type
	ActsCreated *prometheus.CounterVec

	// Book entries allocated by numbering policy
	EntriesAllocated *prometheus.CounterVec

	// Allocations rejected by the integrity check or the unique index
	AllocationConflicts prometheus.Counter

	// Land records closed by seal mode
	RecordsClosed *prometheus.CounterVec

	CloseLatency prometheus.Histogram
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landrec_recording_acts_created_total",
			Help: "Recording acts created by act type",
		}, []string{"act_type"}),

		EntriesAllocated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landrec_book_entries_allocated_total",
			Help: "Book entry numbers allocated by numbering policy",
		}, []string{"policy"}),

		AllocationConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "landrec_book_entry_allocation_conflicts_total",
			Help: "Book entry allocations rejected because the number was already taken",
		}),

		RecordsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landrec_land_records_closed_total",
			Help: "Land records closed by seal mode",
		}, []string{"mode"}), // mode: "electronic", "manual"

		CloseLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "landrec_land_record_close_duration_seconds",
			Help:    "Duration of land record close including validation and sealing",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

func (m *Metrics) IncrementActCreated(actType string) {
	if m != nil {
		m.ActsCreated.WithLabelValues(actType).Inc()
	}
}

func (m *Metrics) IncrementEntryAllocated(policy string) {
	if m != nil {
		m.EntriesAllocated.WithLabelValues(policy).Inc()
	}
}

func (m *Metrics) IncrementAllocationConflict() {
	if m != nil {
		m.AllocationConflicts.Inc()
	}
}

// ObserveClose records a successful close.
func (m *Metrics) ObserveClose(mode string, d time.Duration) {
	if m != nil {
		m.RecordsClosed.WithLabelValues(mode).Inc()
		m.CloseLatency.Observe(d.Seconds())
	}
}
