package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Confirmation path labels.
const (
	PathWebhook  = "webhook"
	PathRedirect = "redirect"
)

// PaymentMetrics tracks the checkout funnel: sessions opened, confirmations
// landed (split by which path won), and provider failures.
type PaymentMetrics struct {
	initiated        prometheus.Counter
	completed        *prometheus.CounterVec
	providerFailures prometheus.Counter
	checkoutDuration prometheus.Histogram
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	initiated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payments_initiated_total",
		Help: "Checkout sessions successfully opened.",
	})
	completed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_completed_total",
		Help: "Payments confirmed, labelled by the confirmation path that won.",
	}, []string{"path"})
	providerFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_provider_failures_total",
		Help: "Provider calls that failed while opening checkout sessions.",
	})
	checkoutDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_session_duration_seconds",
		Help:    "Latency of provider checkout session creation.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(initiated, completed, providerFailures, checkoutDuration)
	return &PaymentMetrics{
		initiated:        initiated,
		completed:        completed,
		providerFailures: providerFailures,
		checkoutDuration: checkoutDuration,
	}
}

// IncInitiated counts one opened checkout session.
func (p *PaymentMetrics) IncInitiated() {
	if p == nil || p.initiated == nil {
		return
	}
	p.initiated.Inc()
}

// IncCompleted counts one confirmed payment for the given path.
func (p *PaymentMetrics) IncCompleted(path string) {
	if p == nil || p.completed == nil {
		return
	}
	p.completed.WithLabelValues(normalizePath(path)).Inc()
}

// IncProviderFailure counts one failed provider call.
func (p *PaymentMetrics) IncProviderFailure() {
	if p == nil || p.providerFailures == nil {
		return
	}
	p.providerFailures.Inc()
}

// ObserveCheckoutDuration records how long the provider call took.
func (p *PaymentMetrics) ObserveCheckoutDuration(duration time.Duration) {
	if p == nil || p.checkoutDuration == nil {
		return
	}
	p.checkoutDuration.Observe(duration.Seconds())
}

func normalizePath(path string) string {
	switch path {
	case PathWebhook, PathRedirect:
		return path
	default:
		return "unknown"
	}
}
