package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogFetchMetrics records upstream catalog load activity.
type CatalogFetchMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	offers   *prometheus.GaugeVec
}

// NewCatalogFetchMetrics registers the catalog metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCatalogFetchMetrics(reg prometheus.Registerer) *CatalogFetchMetrics {
	if reg == nil {
		return &CatalogFetchMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_fetch_duration_seconds",
		Help:    "Duration of catalog loads in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"catalog"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_fetch_success_total",
		Help: "Catalog loads that completed and were applied.",
	}, []string{"catalog"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_fetch_failure_total",
		Help: "Catalog loads that failed.",
	}, []string{"catalog"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_records_skipped_total",
		Help: "Catalog records dropped because they could not be decoded.",
	}, []string{"catalog"})
	offers := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "catalog_offers",
		Help: "Offers currently held per catalog.",
	}, []string{"catalog"})
	reg.MustRegister(duration, success, failure, skipped, offers)
	return &CatalogFetchMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		skipped:  skipped,
		offers:   offers,
	}
}

// ObserveDuration records how long a load of the named catalog took.
func (c *CatalogFetchMetrics) ObserveDuration(catalog string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(catalog)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter and records the offer count.
func (c *CatalogFetchMetrics) IncSuccess(catalog string, offerCount int) {
	if c == nil || c.success == nil {
		return
	}
	label := normalizeLabel(catalog)
	c.success.WithLabelValues(label).Inc()
	c.offers.WithLabelValues(label).Set(float64(offerCount))
}

// IncFailure increments the failure counter for the named catalog.
func (c *CatalogFetchMetrics) IncFailure(catalog string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(catalog)).Inc()
}

// AddSkipped counts records dropped while decoding.
func (c *CatalogFetchMetrics) AddSkipped(catalog string, n int) {
	if c == nil || c.skipped == nil || n <= 0 {
		return
	}
	c.skipped.WithLabelValues(normalizeLabel(catalog)).Add(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
