// Package metrics exposes run metrics on a private prometheus registry.
//
// Metrics are served over HTTP by the server package and can be written to a
// node_exporter textfile after a batch run.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/shelterpair/internal/pairing"
)

const namespace = "shelterpair"

// Metrics holds the collectors for pairing runs.
type Metrics struct {
	reg *prometheus.Registry

	runsTotal      *prometheus.CounterVec
	paired         prometheus.Gauge
	openRecords    prometheus.Gauge
	orphanExits    prometheus.Gauge
	unmatchedExits prometheus.Gauge
	runDuration    prometheus.Summary
	lastSuccessTS  prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{reg: prometheus.NewRegistry()}

	m.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Pairing runs by status",
	}, []string{"status"})
	m.paired = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "paired_records",
		Help:      "Records with a matched exit in the last successful run",
	})
	m.openRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "open_records",
		Help:      "Records without an exit in the last successful run",
	})
	m.orphanExits = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "orphan_exits",
		Help:      "Exits dropped for preceding every entry in the last successful run",
	})
	m.unmatchedExits = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "unmatched_exits",
		Help:      "Surviving exits with no entry of equal rank in the last successful run",
	})
	m.runDuration = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of pairing runs",
	})
	m.lastSuccessTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful run",
	})

	m.reg.MustRegister(
		m.runsTotal, m.paired, m.openRecords, m.orphanExits,
		m.unmatchedExits, m.runDuration, m.lastSuccessTS,
	)
	return m
}

// Observe records a successful run finished at now.
func (m *Metrics) Observe(stats pairing.Stats, duration time.Duration, now time.Time) {
	m.runsTotal.WithLabelValues("succeeded").Inc()
	m.runDuration.Observe(duration.Seconds())
	m.SetLatest(stats, now)
}

// SetLatest sets the gauges to a successful run finished at finished
// without counting it.
func (m *Metrics) SetLatest(stats pairing.Stats, finished time.Time) {
	m.paired.Set(float64(stats.Paired))
	m.openRecords.Set(float64(stats.OpenRecords))
	m.orphanExits.Set(float64(stats.OrphanExits))
	m.unmatchedExits.Set(float64(stats.UnmatchedExits))
	m.lastSuccessTS.Set(float64(finished.Unix()))
}

// ObserveFailure records a failed run. Gauges keep the last success.
func (m *Metrics) ObserveFailure(duration time.Duration) {
	m.runsTotal.WithLabelValues("failed").Inc()
	m.runDuration.Observe(duration.Seconds())
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry for the node_exporter textfile
// collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
