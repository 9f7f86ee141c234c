// Package metrics exports the result of a run in the Prometheus text format,
// for collection by node_exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Zuo-Peng/tabtally/internal/pipeline"
)

// Metrics holds the gauges describing one run.
type Metrics struct {
	Tabs           prometheus.Gauge
	Windows        prometheus.Gauge
	Domains        prometheus.Gauge
	DomainTabs     *prometheus.GaugeVec
	SkippedURLs    prometheus.Gauge
	DocumentBytes  prometheus.Gauge
	DecodeDuration prometheus.Gauge
	LastRun        prometheus.Gauge

	registry *prometheus.Registry
}

// New registers the run gauges on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Tabs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tabtally_tabs",
			Help: "Non-empty tabs in the first window of the session",
		}),
		Windows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tabtally_windows",
			Help: "Windows in the session",
		}),
		Domains: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tabtally_domains",
			Help: "Distinct hosts among the reported top domains",
		}),
		DomainTabs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tabtally_domain_tabs",
			Help: "Tabs showing each of the top domains",
		}, []string{"domain"}),
		SkippedURLs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tabtally_skipped_urls",
			Help: "Tabs whose current URL could not be parsed",
		}),
		DocumentBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tabtally_document_bytes",
			Help: "Size of the decompressed session document",
		}),
		DecodeDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tabtally_decode_seconds",
			Help: "Time spent decompressing and decoding the session",
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tabtally_last_run_timestamp_seconds",
			Help: "Unix time of the run",
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(m.Tabs, m.Windows, m.Domains, m.DomainTabs,
		m.SkippedURLs, m.DocumentBytes, m.DecodeDuration, m.LastRun)
	return m
}

// Observe sets every gauge from res.
func (m *Metrics) Observe(res *pipeline.Result, at time.Time) {
	sum := res.Summary
	m.Tabs.Set(float64(sum.Tabs))
	m.Windows.Set(float64(sum.Windows))
	m.Domains.Set(float64(len(sum.TopDomains)))
	m.DomainTabs.Reset()
	for _, dc := range sum.TopDomains {
		m.DomainTabs.WithLabelValues(dc.Domain).Set(float64(dc.Count))
	}
	m.SkippedURLs.Set(float64(len(sum.Skipped)))
	m.DocumentBytes.Set(float64(res.DocumentSize))
	m.DecodeDuration.Set(res.DecodeDuration.Seconds())
	m.LastRun.Set(float64(at.Unix()))
}

// Registry exposes the underlying registry, e.g. for a push gateway.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile atomically writes the gauges to path.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
