package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"

	OutcomeOK           = "ok"
	OutcomeInvalid      = "invalid"
	OutcomeNotFound     = "not_found"
	OutcomeNotRequested = "not_requested"
	OutcomeNoop         = "noop"
	OutcomeStorageError = "storage_error"
	OutcomeError        = "error"
)

// Metrics tracks catalog mutations, persistence failures and collection size.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Mutations            *prometheus.CounterVec
	MutationDuration     *prometheus.HistogramVec
	StorageWriteFailures prometheus.Counter
	Products             prometheus.Gauge
	ViewRenders          prometheus.Counter
}

// New registers all catalog metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_mutations_total",
			Help: "Product mutations by operation and outcome",
		}, []string{"op", "outcome"}),
		MutationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_mutation_duration_seconds",
			Help:    "Duration of product mutations including the storage write",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"op"}),
		StorageWriteFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "catalog_storage_write_failures_total",
			Help: "Writes to the durable slot that failed after the in-memory change",
		}),
		Products: f.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_products",
			Help: "Number of products currently in the store",
		}),
		ViewRenders: f.NewCounter(prometheus.CounterOpts{
			Name: "catalog_view_renders_total",
			Help: "Product table projections rendered",
		}),
	}
}

// ObserveMutation records one finished mutation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveMutation(op, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(op, outcome).Inc()
	m.MutationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementStorageWriteFailures() {
	if m == nil {
		return
	}
	m.StorageWriteFailures.Inc()
}

func (m *Metrics) SetProducts(n int) {
	if m == nil {
		return
	}
	m.Products.Set(float64(n))
}

func (m *Metrics) IncrementViewRenders() {
	if m == nil {
		return
	}
	m.ViewRenders.Inc()
}
