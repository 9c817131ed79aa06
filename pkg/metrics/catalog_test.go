package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCatalogFetchMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCatalogFetchMetrics(reg)
	catalog := "ocean_leg"
	metrics.ObserveDuration(catalog, 250*time.Millisecond)
	metrics.IncSuccess(catalog, 12)
	metrics.IncFailure(catalog)
	metrics.AddSkipped(catalog, 2)
	metrics.AddSkipped(catalog, 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "catalog_fetch_success_total", "catalog", catalog); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "catalog_fetch_failure_total", "catalog", catalog); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "catalog_records_skipped_total", "catalog", catalog); err != nil {
		t.Fatalf("fetch skipped: %v", err)
	} else if got != 2 {
		t.Fatalf("expected skipped=2, got %f", got)
	}

	if got, err := fetchGaugeValue(mfs, "catalog_offers", "catalog", catalog); err != nil {
		t.Fatalf("fetch offers: %v", err)
	} else if got != 12 {
		t.Fatalf("expected offers=12, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "catalog_fetch_duration_seconds", "catalog", catalog); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestDraftMetricsCountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewDraftMetrics(reg)
	metrics.Inc(DraftEventOptionSaved)
	metrics.Inc(DraftEventOptionSaved)
	metrics.Inc("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "draft_option_events_total", "event", DraftEventOptionSaved); err != nil {
		t.Fatalf("fetch saved: %v", err)
	} else if got != 2 {
		t.Fatalf("expected saved=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "draft_option_events_total", "event", "unknown"); err != nil {
		t.Fatalf("fetch unknown: %v", err)
	} else if got != 1 {
		t.Fatalf("expected unknown=1, got %f", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	var catalog *CatalogFetchMetrics
	catalog.IncFailure("x")
	NewCatalogFetchMetrics(nil).IncSuccess("x", 1)
	NewDraftMetrics(nil).Inc(DraftEventSubmitted)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	metric, err := findMetric(mfs, name, label, value)
	if err != nil {
		return 0, err
	}
	return metric.GetCounter().GetValue(), nil
}

func fetchGaugeValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	metric, err := findMetric(mfs, name, label, value)
	if err != nil {
		return 0, err
	}
	return metric.GetGauge().GetValue(), nil
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	metric, err := findMetric(mfs, name, label, value)
	if err != nil {
		return 0, err
	}
	return metric.GetHistogram().GetSampleSum(), nil
}

func findMetric(mfs []*dto.MetricFamily, name, label, value string) (*dto.Metric, error) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					return metric, nil
				}
			}
		}
		return nil, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
	}
	return nil, fmt.Errorf("metric %q not found", name)
}
