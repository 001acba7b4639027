// Package metrics exposes Prometheus collectors for a crawl run.
package metrics

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Page status labels.
const (
	StatusOK            = "ok"
	StatusFetchFailed   = "fetch_failed"
	StatusPersistFailed = "persist_failed"
	StatusPanic         = "panic"
)

// Collector owns a private registry so several crawls (or tests) in one
// process never collide. A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	pagesTotal          *prometheus.CounterVec
	bytesTotal          *prometheus.CounterVec
	fetchAttemptsTotal  prometheus.Counter
	linksEnqueuedTotal  prometheus.Counter
	linksDuplicateTotal prometheus.Counter
	activeWorkers       prometheus.Gauge
	frontierOutstanding prometheus.Gauge
	fetchDuration       prometheus.Histogram
}

// New registers the scraper collectors plus the Go runtime collector.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		pagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_pages_total",
				Help: "Total number of jobs processed, labeled by outcome.",
			},
			[]string{"status"},
		),
		bytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_bytes_total",
				Help: "Total number of body bytes fetched, labeled by site.",
			},
			[]string{"site"},
		),
		fetchAttemptsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scraper_fetch_attempts_total",
			Help: "Total number of HTTP attempts, including retries.",
		}),
		linksEnqueuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scraper_links_enqueued_total",
			Help: "Total number of child jobs submitted to the frontier.",
		}),
		linksDuplicateTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scraper_links_duplicate_total",
			Help: "Total number of links rejected because they were already seen.",
		}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scraper_active_workers",
			Help: "Number of workers currently processing a job.",
		}),
		frontierOutstanding: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scraper_frontier_outstanding",
			Help: "Jobs queued or in progress.",
		}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scraper_fetch_duration_seconds",
			Help:    "Histogram of successful fetch latencies across all attempts.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
	}
	c.registry.MustRegister(
		c.pagesTotal,
		c.bytesTotal,
		c.fetchAttemptsTotal,
		c.linksEnqueuedTotal,
		c.linksDuplicateTotal,
		c.activeWorkers,
		c.frontierOutstanding,
		c.fetchDuration,
		collectors.NewGoCollector(),
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ObservePage counts one processed job and the bytes it produced.
func (c *Collector) ObservePage(site, status string, bytesFetched int) {
	if c == nil {
		return
	}
	c.pagesTotal.WithLabelValues(status).Inc()
	if bytesFetched > 0 {
		c.bytesTotal.WithLabelValues(SanitizeSite(site)).Add(float64(bytesFetched))
	}
}

// ObserveFetchAttempt counts one HTTP attempt.
func (c *Collector) ObserveFetchAttempt() {
	if c == nil {
		return
	}
	c.fetchAttemptsTotal.Inc()
}

// ObserveFetchDuration records the latency of a successful fetch.
func (c *Collector) ObserveFetchDuration(d time.Duration) {
	if c == nil {
		return
	}
	c.fetchDuration.Observe(d.Seconds())
}

// ObserveLinks counts enqueued and duplicate links for one page.
func (c *Collector) ObserveLinks(enqueued, duplicates int) {
	if c == nil {
		return
	}
	c.linksEnqueuedTotal.Add(float64(enqueued))
	c.linksDuplicateTotal.Add(float64(duplicates))
}

// IncActiveWorkers increments the active workers gauge.
func (c *Collector) IncActiveWorkers() {
	if c == nil {
		return
	}
	c.activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func (c *Collector) DecActiveWorkers() {
	if c == nil {
		return
	}
	c.activeWorkers.Dec()
}

// SetOutstanding records the frontier's outstanding-job count.
func (c *Collector) SetOutstanding(n int) {
	if c == nil {
		return
	}
	c.frontierOutstanding.Set(float64(n))
}

// WriteTextfile writes the registry in the text exposition format, suitable
// for the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
