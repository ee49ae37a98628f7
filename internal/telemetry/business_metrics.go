package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics tracks order-level outcomes for dashboards. All metrics
// carry a tenant_id label for per-tenant segmentation.
type BusinessMetrics struct {
	OrdersCreated    *prometheus.CounterVec
	OrderValue       *prometheus.HistogramVec
	InvoicesRendered *prometheus.CounterVec

	EmailSent   *prometheus.CounterVec
	EmailFailed *prometheus.CounterVec

	WebhookReceived *prometheus.CounterVec
	WebhookFailed   *prometheus.CounterVec
}

// NewBusinessMetrics creates and registers the business metrics on reg.
func NewBusinessMetrics(reg prometheus.Registerer) *BusinessMetrics {
	factory := promauto.With(reg)
	subsystem := "business"

	return &BusinessMetrics{
		OrdersCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vanir",
				Subsystem: subsystem,
				Name:      "orders_created_total",
				Help:      "Total orders created",
			},
			[]string{"tenant_id"},
		),
		OrderValue: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "vanir",
				Subsystem: subsystem,
				Name:      "order_value",
				Help:      "Order total distribution in the order currency",
				Buckets:   []float64{10, 25, 50, 75, 100, 150, 250, 500, 1000},
			},
			[]string{"tenant_id"},
		),
		InvoicesRendered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vanir",
				Subsystem: subsystem,
				Name:      "invoices_rendered_total",
				Help:      "Total invoice documents rendered and stored",
			},
			[]string{"tenant_id"},
		),
		EmailSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vanir",
				Subsystem: subsystem,
				Name:      "emails_sent_total",
				Help:      "Total emails sent by type",
			},
			[]string{"tenant_id", "email_type"},
		),
		EmailFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vanir",
				Subsystem: subsystem,
				Name:      "emails_failed_total",
				Help:      "Total email delivery failures",
			},
			[]string{"tenant_id", "email_type"},
		),
		WebhookReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vanir",
				Subsystem: subsystem,
				Name:      "webhook_received_total",
				Help:      "Total payment webhooks received",
			},
			[]string{"event_type"},
		),
		WebhookFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vanir",
				Subsystem: subsystem,
				Name:      "webhook_failed_total",
				Help:      "Total payment webhook processing failures",
			},
			[]string{"event_type"},
		),
	}
}

// Business is the process-wide instance. Recording helpers no-op until
// InitBusinessMetrics runs, so library code never needs a nil check.
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance.
func InitBusinessMetrics(reg prometheus.Registerer) *BusinessMetrics {
	Business = NewBusinessMetrics(reg)
	return Business
}

// RecordOrderCreated counts a created order and observes its total.
func RecordOrderCreated(tenantID string, total float64) {
	if Business == nil {
		return
	}
	Business.OrdersCreated.WithLabelValues(tenantID).Inc()
	Business.OrderValue.WithLabelValues(tenantID).Observe(total)
}

// RecordInvoiceRendered counts a stored invoice artifact.
func RecordInvoiceRendered(tenantID string) {
	if Business == nil {
		return
	}
	Business.InvoicesRendered.WithLabelValues(tenantID).Inc()
}

// RecordEmail counts an email delivery attempt by outcome.
func RecordEmail(tenantID, emailType string, err error) {
	if Business == nil {
		return
	}
	if err != nil {
		Business.EmailFailed.WithLabelValues(tenantID, emailType).Inc()
		return
	}
	Business.EmailSent.WithLabelValues(tenantID, emailType).Inc()
}

// RecordWebhook counts a received webhook and whether handling failed.
func RecordWebhook(eventType string, err error) {
	if Business == nil {
		return
	}
	Business.WebhookReceived.WithLabelValues(eventType).Inc()
	if err != nil {
		Business.WebhookFailed.WithLabelValues(eventType).Inc()
	}
}
