// Package prometheus records pipeline metrics with the Prometheus client and
// exposes them for scraping.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.MetricsRecorder = (*Recorder)(nil)

const namespace = "clausesense"

// Recorder owns a private registry so several instances can coexist.
type Recorder struct {
	registry *prometheus.Registry

	documents     *prometheus.CounterVec
	clauses       prometheus.Counter
	searches      prometheus.Counter
	searchResults prometheus.Histogram
	findings      *prometheus.CounterVec
	ruleWarnings  *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

// New creates a recorder with Go runtime and process collectors attached.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_ingested_total",
			Help:      "Documents ingested, by outcome.",
		}, []string{"outcome"}),
		clauses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clauses_indexed_total",
			Help:      "Clauses inserted into the clause library.",
		}),
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Retrieval queries served.",
		}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Results returned per retrieval query.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Risk findings emitted, by severity.",
		}, []string{"severity"}),
		ruleWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_warnings_total",
			Help:      "Rules skipped after failing, by rule id.",
		}, []string{"rule"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage latency.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"stage"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.documents,
		r.clauses,
		r.searches,
		r.searchResults,
		r.findings,
		r.ruleWarnings,
		r.stageDuration,
	)
	return r
}

// DocumentIngested counts an ingest attempt by outcome.
func (r *Recorder) DocumentIngested(outcome string) {
	r.documents.WithLabelValues(outcome).Inc()
}

// ClausesIndexed counts clauses inserted into the library.
func (r *Recorder) ClausesIndexed(n int) {
	r.clauses.Add(float64(n))
}

// SearchPerformed counts a query and observes its result size.
func (r *Recorder) SearchPerformed(results int) {
	r.searches.Inc()
	r.searchResults.Observe(float64(results))
}

// FindingEmitted counts a finding by severity.
func (r *Recorder) FindingEmitted(severity string) {
	r.findings.WithLabelValues(severity).Inc()
}

// RuleWarning counts a skipped rule.
func (r *Recorder) RuleWarning(ruleID string) {
	r.ruleWarnings.WithLabelValues(ruleID).Inc()
}

// ObserveStage records the latency of a pipeline stage.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
