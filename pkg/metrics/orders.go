package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records order lifecycle and gateway activity.
type OrderMetrics struct {
	created         prometheus.Counter
	paid            *prometheus.CounterVec
	delivered       prometheus.Counter
	captureDuration prometheus.Histogram
	captureFailures prometheus.Counter
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders committed from carts.",
	})
	paid := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Orders transitioned to paid, by payment method.",
	}, []string{"method"})
	delivered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_delivered_total",
		Help: "Orders transitioned to delivered.",
	})
	captureDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "paypal_capture_duration_seconds",
		Help:    "Duration of PayPal capture calls in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	captureFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "paypal_capture_failures_total",
		Help: "PayPal captures that did not complete.",
	})
	reg.MustRegister(created, paid, delivered, captureDuration, captureFailures)
	return &OrderMetrics{
		created:         created,
		paid:            paid,
		delivered:       delivered,
		captureDuration: captureDuration,
		captureFailures: captureFailures,
	}
}

// IncCreated increments the created-order counter.
func (m *OrderMetrics) IncCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

// IncPaid increments the paid-order counter for the payment method.
func (m *OrderMetrics) IncPaid(method string) {
	if m == nil || m.paid == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	m.paid.WithLabelValues(method).Inc()
}

// IncDelivered increments the delivered-order counter.
func (m *OrderMetrics) IncDelivered() {
	if m == nil || m.delivered == nil {
		return
	}
	m.delivered.Inc()
}

// ObserveCapture records the duration for a gateway capture call.
func (m *OrderMetrics) ObserveCapture(duration time.Duration) {
	if m == nil || m.captureDuration == nil {
		return
	}
	m.captureDuration.Observe(duration.Seconds())
}

// IncCaptureFailure increments the failed-capture counter.
func (m *OrderMetrics) IncCaptureFailure() {
	if m == nil || m.captureFailures == nil {
		return
	}
	m.captureFailures.Inc()
}
