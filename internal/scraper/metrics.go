package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for one pipeline run. All methods
// are nil-safe so components can run without metrics wired.
type Metrics struct {
	Registry         *prometheus.Registry
	PagesRendered    *prometheus.CounterVec
	RenderDuration   prometheus.Histogram
	RecordsExtracted prometheus.Counter
	ItemErrors       *prometheus.CounterVec
	CandidatesFound  prometheus.Gauge
}

// NewMetrics constructs and registers all collectors on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pagesRendered := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_pages_rendered_total",
			Help: "Total pages rendered, by phase (listing or detail).",
		},
		[]string{"phase"},
	)
	renderDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_render_duration_seconds",
			Help:    "Latency of remote page renders.",
			Buckets: prometheus.DefBuckets,
		},
	)
	recordsExtracted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_records_extracted_total",
			Help: "Total records successfully assembled.",
		},
	)
	itemErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_item_errors_total",
			Help: "Total skipped items by error type.",
		},
		[]string{"error_type"},
	)
	candidatesFound := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_candidates_found",
			Help: "Candidate URLs discovered in the last listing pass.",
		},
	)

	registry.MustRegister(pagesRendered, renderDuration, recordsExtracted, itemErrors, candidatesFound)

	return &Metrics{
		Registry:         registry,
		PagesRendered:    pagesRendered,
		RenderDuration:   renderDuration,
		RecordsExtracted: recordsExtracted,
		ItemErrors:       itemErrors,
		CandidatesFound:  candidatesFound,
	}
}

// IncPageRendered increments the rendered-pages counter for a phase.
func (m *Metrics) IncPageRendered(phase string) {
	if m == nil {
		return
	}
	m.PagesRendered.WithLabelValues(phase).Inc()
}

// ObserveRender records one render latency.
func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.RenderDuration.Observe(d.Seconds())
}

// IncRecord increments the extracted-records counter.
func (m *Metrics) IncRecord() {
	if m == nil {
		return
	}
	m.RecordsExtracted.Inc()
}

// IncItemError increments the skipped-items counter for a type label.
func (m *Metrics) IncItemError(errorType string) {
	if m == nil {
		return
	}
	m.ItemErrors.WithLabelValues(errorType).Inc()
}

// SetCandidates records the discovered candidate count.
func (m *Metrics) SetCandidates(n int) {
	if m == nil {
		return
	}
	m.CandidatesFound.Set(float64(n))
}
