package hiservice

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// outcomes recorded against each request
const (
	outcomeSuccess = "success"
	outcomeFault   = "fault"
	outcomeTimeout = "timeout"
	outcomeError   = "error"
	outcomeFake    = "fake"
	outcomeCached  = "cached"
)

// operation names
const (
	operationSearchIHIBatch    = "searchIHIBatchSync"
	operationReadReferenceData = "readReferenceData"
)

// Metrics tracks calls made to the HI Service
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates metrics registered with the registerer specified.
// If reg is nil, the metrics are created but not registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hiservice_requests_total",
			Help: "Total number of requests made to the HI Service, by operation and outcome",
		}, []string{"operation", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hiservice_request_duration_seconds",
			Help:    "Duration of requests made to the HI Service",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
	}
}

// observe records the outcome and duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) observe(operation string, outcome string, start time.Time) {
	m.Requests.WithLabelValues(operation, outcome).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
