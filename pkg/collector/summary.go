package collector

import (
	"sync"
	"time"

	"github.com/beorn7/perks/quantile"
	"github.com/prometheus/client_golang/prometheus"
)

// scrapeTimeQuantiles is the set of quantiles (quantile -> epsilon)
// tracked for scrape-cycle durations.
var scrapeTimeQuantiles = map[float64]float64{
	0.50: 0.01,
	0.90: 0.01,
	0.95: 0.01,
	0.99: 0.01,
	1.00: 0.01,
}

// ScrapeTimer tracks the durations of scrape cycles across the process
// lifetime and exposes them as a Prometheus summary.
type ScrapeTimer struct {
	desc *prometheus.Desc

	mu     sync.Mutex
	count  uint64
	sum    float64
	stream *quantile.Stream
}

var _ prometheus.Collector = (*ScrapeTimer)(nil)

// NewScrapeTimer builds a timer exposed under the given metric name.
func NewScrapeTimer(name, help string) *ScrapeTimer {
	return &ScrapeTimer{
		desc:   prometheus.NewDesc(name, help, nil, nil),
		stream: quantile.NewTargeted(scrapeTimeQuantiles),
	}
}

// Observe records the duration of one scrape cycle.
func (t *ScrapeTimer) Observe(d time.Duration) {
	seconds := d.Seconds()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.count++
	t.sum += seconds
	t.stream.Insert(seconds)
}

// Describe implements prometheus.Collector.
func (t *ScrapeTimer) Describe(ch chan<- *prometheus.Desc) {
	ch <- t.desc
}

// Collect implements prometheus.Collector, emitting a snapshot of the
// duration distribution.
func (t *ScrapeTimer) Collect(ch chan<- prometheus.Metric) {
	t.mu.Lock()

	quantiles := make(map[float64]float64, len(scrapeTimeQuantiles))
	for phi := range scrapeTimeQuantiles {
		quantiles[phi] = t.stream.Query(phi)
	}

	count, sum := t.count, t.sum

	t.mu.Unlock()

	ch <- prometheus.MustNewConstSummary(t.desc, count, sum, quantiles)
}
