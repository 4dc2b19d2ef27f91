package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestDashboardMetricsExports(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewDashboardMetrics(reg)

	metrics.ObserveFetchDuration("ok", 250*time.Millisecond)
	metrics.IncSourceFailure("inventory")
	metrics.IncStaleDiscard()
	metrics.IncLiveEvent("sales_update", "applied")
	metrics.SetGeneration(7)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "dashboard_source_failures", "source", "inventory"); err != nil {
		t.Fatalf("fetch source failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected source failures=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "dashboard_live_events", "type", "sales_update"); err != nil {
		t.Fatalf("fetch live events: %v", err)
	} else if got != 1 {
		t.Fatalf("expected live events=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "dashboard_fetch_duration_seconds", "outcome", "ok"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if mf := findMetricFamily(mfs, "dashboard_snapshot_generation"); mf == nil {
		t.Fatal("generation gauge not exported")
	} else if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 7 {
		t.Fatalf("expected generation 7, got %f", got)
	}

	if mf := findMetricFamily(mfs, "dashboard_stale_discards"); mf == nil {
		t.Fatal("stale discard counter not exported")
	} else if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected stale discards 1, got %f", got)
	}
}

func TestDashboardMetricsNilSafe(t *testing.T) {
	var metrics *DashboardMetrics
	metrics.ObserveFetchDuration("ok", time.Second)
	metrics.IncSourceFailure("sales")
	metrics.IncStaleDiscard()
	metrics.IncLiveEvent("summary_update", "applied")
	metrics.SetGeneration(1)

	empty := NewDashboardMetrics(nil)
	empty.IncStaleDiscard()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
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
