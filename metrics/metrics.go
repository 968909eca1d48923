// Package metrics counts workbook loads, cache behaviour, exports and ledger saves in a
// private Prometheus registry. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "orderdash"

type Metrics struct {
	Registry *prometheus.Registry

	loads        *prometheus.CounterVec
	loadFailures *prometheus.CounterVec
	loadSeconds  prometheus.Histogram
	cache        *prometheus.CounterVec
	rows         *prometheus.GaugeVec
	exports      *prometheus.CounterVec
	ledgerSaves  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workbook_loads_total",
			Help:      "Workbooks read and normalised, by source kind.",
		}, []string{"kind"}),
		loadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workbook_load_failures_total",
			Help:      "Workbook loads that failed, by source kind.",
		}, []string{"kind"}),
		loadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workbook_load_seconds",
			Help:      "Time spent reading and normalising a workbook.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Workbook cache hits, misses and evictions.",
		}, []string{"event"}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sheet_rows",
			Help:      "Rows in each sheet of the last loaded workbook.",
		}, []string{"sheet"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Workbooks exported, by file name.",
		}, []string{"file"}),
		ledgerSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_saves_total",
			Help:      "Issue ledger saves.",
		}),
	}
	m.Registry.MustRegister(
		m.loads, m.loadFailures, m.loadSeconds, m.cache, m.rows, m.exports, m.ledgerSaves,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Load(kind string, started time.Time, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.loadFailures.WithLabelValues(kind).Inc()
		return
	}
	m.loads.WithLabelValues(kind).Inc()
	m.loadSeconds.Observe(time.Since(started).Seconds())
}

func (m *Metrics) CacheHit()      { m.cacheEvent("hit") }
func (m *Metrics) CacheMiss()     { m.cacheEvent("miss") }
func (m *Metrics) CacheEviction() { m.cacheEvent("eviction") }

func (m *Metrics) cacheEvent(event string) {
	if m == nil {
		return
	}
	m.cache.WithLabelValues(event).Inc()
}

func (m *Metrics) Rows(sheet string, n int) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(sheet).Set(float64(n))
}

func (m *Metrics) Export(file string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(file).Inc()
}

func (m *Metrics) LedgerSave() {
	if m == nil {
		return
	}
	m.ledgerSaves.Inc()
}

// WriteTextfile dumps the registry in the text exposition format, for the node
// exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
