package metrics

import "github.com/prometheus/client_golang/prometheus"

// DraftMetrics counts option lifecycle events on draft quotes.
type DraftMetrics struct {
	events *prometheus.CounterVec
}

// Draft event labels.
const (
	DraftEventOptionSaved    = "option_saved"
	DraftEventOptionRejected = "option_rejected"
	DraftEventOptionRemoved  = "option_removed"
	DraftEventSubmitted      = "submitted"
)

// NewDraftMetrics registers the draft counters. A nil registerer yields a no-op recorder.
func NewDraftMetrics(reg prometheus.Registerer) *DraftMetrics {
	if reg == nil {
		return &DraftMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "draft_option_events_total",
		Help: "Option lifecycle events on draft quotes.",
	}, []string{"event"})
	reg.MustRegister(events)
	return &DraftMetrics{events: events}
}

// Inc increments the counter for the given event.
func (d *DraftMetrics) Inc(event string) {
	if d == nil || d.events == nil {
		return
	}
	d.events.WithLabelValues(normalizeLabel(event)).Inc()
}
