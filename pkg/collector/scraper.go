package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
)

// Scraper sequences the collectors: once per period it resolves the
// validator identity (first cycle only), then runs every collector in
// a fixed order, isolating per-collector failures so that one broken
// source cannot stop the others from reporting.
//
// The scrape loop is strictly sequential; the only concurrent reader
// of the metrics set is the exposition endpoint, which the Prometheus
// client library already makes safe.
type Scraper struct {
	runner  CommandRunner
	metrics *Metrics
	log     logr.Logger

	period      time.Duration
	callTimeout time.Duration

	collectors []Collector

	// identity stays nil until resolution succeeds; until then only
	// collectors that don't label by validator name may run.
	identity *Identity
}

// ScraperOption mutates the scraper during construction.
type ScraperOption func(s *Scraper)

// WithPeriod overrides the default 30s scrape period.
func WithPeriod(d time.Duration) ScraperOption {
	return func(s *Scraper) {
		s.period = d
	}
}

// WithCallTimeout bounds each exec / HTTP call within a cycle.
func WithCallTimeout(d time.Duration) ScraperOption {
	return func(s *Scraper) {
		s.callTimeout = d
	}
}

// WithLogger overrides the default discard logger.
func WithLogger(log logr.Logger) ScraperOption {
	return func(s *Scraper) {
		s.log = log
	}
}

// WithCountryMapper enables session-by-country tallies in the
// peer-book collector.
func WithCountryMapper(v CountryMapper) ScraperOption {
	return func(s *Scraper) {
		for _, c := range s.collectors {
			if pb, ok := c.(*PeerBookCollector); ok {
				pb.countryMapper = v
			}
		}
	}
}

// NewScraper builds a scraper over the given data sources, with the
// collectors in their fixed execution order.
func NewScraper(
	runner CommandRunner,
	containers ContainerInfo,
	api ChainAPI,
	metrics *Metrics,
	opts ...ScraperOption,
) *Scraper {
	s := &Scraper{
		runner:      runner,
		metrics:     metrics,
		log:         logr.Discard(),
		period:      30 * time.Second,
		callTimeout: 30 * time.Second,
		collectors: []Collector{
			NewSystemUsageCollector(metrics),
			NewContainerUptimeCollector(containers, metrics),
			NewVersionCollector(runner, metrics),
			NewBlockAgeCollector(runner, metrics),
			NewHeightCollector(runner, metrics),
			NewChainStatsCollector(api, metrics),
			NewInConsensusCollector(runner, metrics),
			NewLedgerValidatorsCollector(runner, metrics),
			NewPeerBookCollector(runner, metrics),
			NewHbbftPerfCollector(runner, metrics),
			NewBalanceCollector(api, metrics),
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	for _, c := range s.collectors {
		if lc, ok := c.(loggerSetter); ok {
			lc.setLogger(s.log.WithValues("collector", c.Name()))
		}
	}

	return s
}

// Run executes scrape cycles until ctx is cancelled. The first cycle
// starts immediately.
func (s *Scraper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		if err := s.ScrapeOnce(ctx); err != nil {
			s.log.Error(err, "scrape cycle")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ScrapeOnce runs one full scrape cycle. A non-nil error means the
// cycle was degraded (identity unresolved or at least one collector
// failed); whatever could be collected has still been written.
func (s *Scraper) ScrapeOnce(ctx context.Context) error {
	start := time.Now()
	defer func() {
		s.metrics.ScrapeTime.Observe(time.Since(start))
	}()

	identityErr := s.ensureIdentity(ctx)

	var failed int

	for _, c := range s.collectors {
		if c.NeedsIdentity() && s.identity == nil {
			s.log.V(1).Info("skipping collector, identity unresolved",
				"collector", c.Name())
			continue
		}

		var id Identity
		if s.identity != nil {
			id = *s.identity
		}

		if err := s.collect(ctx, c, id); err != nil {
			s.log.Error(err, "collect", "collector", c.Name())
			failed++
		}
	}

	s.log.V(1).Info("cycle done",
		"took", time.Since(start).String(), "failed", failed)

	if identityErr != nil {
		return fmt.Errorf("resolve identity: %w", identityErr)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d collectors failed",
			failed, len(s.collectors))
	}

	return nil
}

func (s *Scraper) collect(ctx context.Context, c Collector, id Identity) error {
	cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	return c.Collect(cctx, id)
}

// ensureIdentity resolves the validator identity on the first cycle
// that reaches the miner; later cycles reuse it for the rest of the
// process lifetime.
func (s *Scraper) ensureIdentity(ctx context.Context) error {
	if s.identity != nil {
		return nil
	}

	cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	id, err := ResolveIdentity(cctx, s.runner, s.log)
	if err != nil {
		return err
	}

	s.log.Info("resolved validator identity",
		"name", id.Name, "address", id.Address)
	s.identity = &id

	return nil
}
