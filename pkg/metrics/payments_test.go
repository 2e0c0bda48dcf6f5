package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPaymentMetricsExportsFunnel(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPaymentMetrics(reg)

	metrics.IncInitiated()
	metrics.IncInitiated()
	metrics.IncCompleted(PathWebhook)
	metrics.IncCompleted(PathRedirect)
	metrics.IncCompleted("bogus")
	metrics.IncProviderFailure()
	metrics.ObserveCheckoutDuration(150 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got := fetchCounter(t, mfs, "payments_initiated_total", "", ""); got != 2 {
		t.Fatalf("expected initiated=2, got %f", got)
	}
	if got := fetchCounter(t, mfs, "payments_completed_total", "path", PathWebhook); got != 1 {
		t.Fatalf("expected webhook completed=1, got %f", got)
	}
	if got := fetchCounter(t, mfs, "payments_completed_total", "path", PathRedirect); got != 1 {
		t.Fatalf("expected redirect completed=1, got %f", got)
	}
	if got := fetchCounter(t, mfs, "payments_completed_total", "path", "unknown"); got != 1 {
		t.Fatalf("expected unknown completed=1, got %f", got)
	}
	if got := fetchCounter(t, mfs, "payment_provider_failures_total", "", ""); got != 1 {
		t.Fatalf("expected provider failures=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "checkout_session_duration_seconds"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestPaymentMetricsNilSafe(t *testing.T) {
	var metrics *PaymentMetrics
	metrics.IncInitiated()
	metrics.IncCompleted(PathWebhook)
	metrics.IncProviderFailure()
	metrics.ObserveCheckoutDuration(time.Second)

	empty := NewPaymentMetrics(nil)
	empty.IncInitiated()
	empty.IncCompleted(PathRedirect)
}

func fetchCounter(t *testing.T, mfs []*dto.MetricFamily, name, label, value string) float64 {
	t.Helper()
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		t.Fatalf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if label == "" || matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %q missing label %s=%s", name, label, value)
	return 0
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		return metric.GetHistogram().GetSampleSum(), nil
	}
	return 0, fmt.Errorf("histogram %q has no samples", name)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
