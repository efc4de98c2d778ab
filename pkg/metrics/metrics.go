// Package metrics defines the Prometheus collectors recorded during a
// commonwords run and exports them in the node-exporter textfile format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for a run.
type Metrics struct {
	FilesScannedTotal   prometheus.Counter
	TokensTotal         *prometheus.CounterVec
	WordsTracked        prometheus.Gauge
	WordsEligible       prometheus.Gauge
	ReportWords         prometheus.Gauge
	RunDuration         prometheus.Histogram
	CacheRequestsTotal  *prometheus.CounterVec
	SinkDeliveriesTotal *prometheus.CounterVec
	registry            *prometheus.Registry
}

// New creates the collectors and registers them in a private registry.
func New() *Metrics {
	m := &Metrics{
		FilesScannedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "commonwords_files_scanned_total",
				Help: "Total number of input files fully scanned.",
			},
		),
		TokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commonwords_tokens_total",
				Help: "Letter runs seen by the tokenizer, by result (accepted, too_short, too_long).",
			},
			[]string{"result"},
		),
		WordsTracked: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "commonwords_words_tracked",
				Help: "Distinct words held in the word index.",
			},
		),
		WordsEligible: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "commonwords_words_eligible",
				Help: "Distinct words present in every input file.",
			},
		),
		ReportWords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "commonwords_report_words",
				Help: "Number of words in the last report, including boundary ties.",
			},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "commonwords_run_duration_seconds",
				Help:    "Wall time of a run from validation to ranked report.",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
		),
		CacheRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commonwords_cache_requests_total",
				Help: "Report cache lookups by result (hit, miss).",
			},
			[]string{"result"},
		),
		SinkDeliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commonwords_sink_deliveries_total",
				Help: "Report deliveries by sink and status.",
			},
			[]string{"sink", "status"},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.FilesScannedTotal,
		m.TokensTotal,
		m.WordsTracked,
		m.WordsEligible,
		m.ReportWords,
		m.RunDuration,
		m.CacheRequestsTotal,
		m.SinkDeliveriesTotal,
	)

	return m
}

// Gatherer exposes the private registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
