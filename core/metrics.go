package core

import (
	"github.com/huangsam/commitclock/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// runMetrics holds the diagnostics of one run in a private registry, so that
// concurrent runs (for example MCP tool calls) never share collectors.
type runMetrics struct {
	registry *prometheus.Registry

	repos       *prometheus.CounterVec
	commits     *prometheus.CounterVec
	scanSeconds prometheus.Histogram
	runSeconds  prometheus.Gauge
}

// newRunMetrics creates the collectors of a run.
func newRunMetrics() *runMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &runMetrics{
		registry: registry,
		repos: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commitclock_repositories_total",
				Help: "Repositories processed, by outcome",
			},
			[]string{"status"},
		),
		commits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commitclock_commits_total",
				Help: "Commits seen, by what happened to them",
			},
			[]string{"outcome"},
		),
		scanSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "commitclock_repository_scan_seconds",
				Help:    "Time spent loading and reconciling one repository",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
		),
		runSeconds: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "commitclock_run_duration_seconds",
				Help: "Wall time of the whole run",
			},
		),
	}
}

// observeScan records the outcome of one scanned repository.
func (m *runMetrics) observeScan(scan *RepoScan, excluded bool) {
	status := "complete"
	switch {
	case excluded:
		status = "excluded"
	case !scan.Complete:
		status = "partial"
	}
	m.repos.WithLabelValues(status).Inc()

	d := scan.Diagnostics
	m.commits.WithLabelValues("counted").Add(float64(d.Counted))
	m.commits.WithLabelValues("skipped").Add(float64(d.Skipped))
	m.commits.WithLabelValues("dropped_" + string(schema.DropPolicy)).Add(float64(d.DroppedPolicy))
	m.commits.WithLabelValues("dropped_" + string(schema.DropWindow)).Add(float64(d.DroppedWindow))
	m.commits.WithLabelValues("dropped_" + string(schema.DropBeforeCanonical)).Add(float64(d.DroppedEarly))
	m.scanSeconds.Observe(scan.Duration.Seconds())
}

// observeFailed records repositories that could not be read.
func (m *runMetrics) observeFailed(n int) {
	m.repos.WithLabelValues("failed").Add(float64(n))
}

// writeTextfile dumps the registry in the node-exporter textfile format.
func (m *runMetrics) writeTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
