package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CarrierErrors   *prometheus.CounterVec
	LabelsPrinted   *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "colissimo_requests_total",
				Help: "Total number of requests by operation, service, and status",
			},
			[]string{"operation", "service", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "colissimo_request_duration_seconds",
				Help:    "Request duration in seconds by operation and service",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "service"},
		),
		CarrierErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "colissimo_carrier_errors_total",
				Help: "Total carrier API errors by service and error type",
			},
			[]string{"service", "error_type"},
		),
		LabelsPrinted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "colissimo_labels_printed_total",
				Help: "Total labels printed by service and label type",
			},
			[]string{"service", "type"},
		),
	}
}

// RecordRequest records a request metric.
func (m *Metrics) RecordRequest(operation, service, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, service, status).Inc()
	m.RequestDuration.WithLabelValues(operation, service).Observe(duration)
}

// RecordError records a carrier error metric.
func (m *Metrics) RecordError(service, errorType string) {
	m.CarrierErrors.WithLabelValues(service, errorType).Inc()
}

// RecordLabel records a printed label metric.
func (m *Metrics) RecordLabel(service, labelType string) {
	m.LabelsPrinted.WithLabelValues(service, labelType).Inc()
}
