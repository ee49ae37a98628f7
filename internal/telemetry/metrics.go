// Package telemetry exposes Prometheus metrics for the worker pipeline.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ConsumerMetrics counts message outcomes per consumer.
type ConsumerMetrics struct {
	Processed *prometheus.CounterVec
	Rejected  *prometheus.CounterVec
	Retried   *prometheus.CounterVec
	BatchSize prometheus.Histogram
}

// NewConsumerMetrics registers the consumer metrics on reg.
func NewConsumerMetrics(reg prometheus.Registerer) *ConsumerMetrics {
	m := &ConsumerMetrics{
		Processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vanir",
			Subsystem: "consumer",
			Name:      "messages_processed_total",
			Help:      "Messages acknowledged after successful processing.",
		}, []string{"consumer"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vanir",
			Subsystem: "consumer",
			Name:      "messages_rejected_total",
			Help:      "Messages dropped permanently after a non-retryable failure.",
		}, []string{"consumer"}),
		Retried: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vanir",
			Subsystem: "consumer",
			Name:      "messages_retried_total",
			Help:      "Messages negatively acknowledged for redelivery.",
		}, []string{"consumer"}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vanir",
			Subsystem: "consumer",
			Name:      "batch_size",
			Help:      "Number of messages fetched per poll.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50},
		}),
	}

	reg.MustRegister(m.Processed, m.Rejected, m.Retried, m.BatchSize)
	return m
}
