package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	CourierRequestsTotal   *prometheus.CounterVec
	CourierRequestDuration *prometheus.HistogramVec
	CourierErrors          *prometheus.CounterVec
	DispatchesTotal        *prometheus.CounterVec
	ReservationsTotal      *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates metrics bound to a custom registry.
// Useful in tests to avoid duplicate registration panics.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CourierRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "velora_courier_requests_total",
				Help: "Total number of courier API requests by courier, operation, and status",
			},
			[]string{"courier", "operation", "status"},
		),
		CourierRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "velora_courier_request_duration_seconds",
				Help:    "Courier API request duration in seconds by courier and operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"courier", "operation"},
		),
		CourierErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "velora_courier_errors_total",
				Help: "Total courier API errors by courier and error type",
			},
			[]string{"courier", "error_type"},
		),
		DispatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "velora_dispatches_total",
				Help: "Total shipment dispatch attempts by courier and outcome",
			},
			[]string{"courier", "outcome"},
		),
		ReservationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "velora_stock_reservations_total",
				Help: "Total stock reservation attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordCourierRequest records a courier API request metric.
func (m *Metrics) RecordCourierRequest(courier, operation, status string, duration float64) {
	m.CourierRequestsTotal.WithLabelValues(courier, operation, status).Inc()
	m.CourierRequestDuration.WithLabelValues(courier, operation).Observe(duration)
}

// RecordCourierError records a courier error metric.
func (m *Metrics) RecordCourierError(courier, errorType string) {
	m.CourierErrors.WithLabelValues(courier, errorType).Inc()
}

// RecordDispatch records a dispatch attempt outcome.
func (m *Metrics) RecordDispatch(courier, outcome string) {
	m.DispatchesTotal.WithLabelValues(courier, outcome).Inc()
}

// RecordReservation records a stock reservation outcome.
func (m *Metrics) RecordReservation(outcome string) {
	m.ReservationsTotal.WithLabelValues(outcome).Inc()
}
