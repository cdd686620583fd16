// Package metrics exposes Prometheus collectors for the downloader.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for fetch and trigger results.
const (
	ResultOK    = "ok"
	ResultEmpty = "empty"
	ResultError = "error"
)

// Recorder owns the downloader's collectors. A nil *Recorder discards
// observations, so components can run without metrics.
type Recorder struct {
	documentsTotal     *prometheus.CounterVec
	fetchAttemptsTotal *prometheus.CounterVec
	triggersTotal      *prometheus.CounterVec
	fetchDuration      *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		documentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hudoc_documents_total",
				Help: "Documents processed, labeled by subsite and outcome.",
			},
			[]string{"subsite", "outcome"},
		),
		fetchAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hudoc_fetch_attempts_total",
				Help: "Conversion endpoint fetch attempts, labeled by subsite and result.",
			},
			[]string{"subsite", "result"},
		),
		triggersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hudoc_conversion_triggers_total",
				Help: "Conversion trigger requests, labeled by subsite and result.",
			},
			[]string{"subsite", "result"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hudoc_fetch_duration_seconds",
				Help:    "Histogram of conversion endpoint fetch latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"subsite"},
		),
	}
}

// ObserveDocument counts one processed document.
func (r *Recorder) ObserveDocument(subsite, outcome string) {
	if r == nil {
		return
	}
	r.documentsTotal.WithLabelValues(subsite, outcome).Inc()
}

// ObserveFetch counts one fetch attempt and its latency.
func (r *Recorder) ObserveFetch(subsite, result string, duration time.Duration) {
	if r == nil {
		return
	}
	r.fetchAttemptsTotal.WithLabelValues(subsite, result).Inc()
	r.fetchDuration.WithLabelValues(subsite).Observe(duration.Seconds())
}

// ObserveTrigger counts one conversion trigger request.
func (r *Recorder) ObserveTrigger(subsite, result string) {
	if r == nil {
		return
	}
	r.triggersTotal.WithLabelValues(subsite, result).Inc()
}

// WriteTextfile dumps g in the node-exporter textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
