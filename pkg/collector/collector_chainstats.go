package collector

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
)

// ChainStatsCollector reports global chain stats from the chain API.
// Its gauges carry no validator label, so it is the one collector that
// can run before the validator identity is resolved.
type ChainStatsCollector struct {
	baseCollector

	api     ChainAPI
	metrics *Metrics
}

var _ Collector = (*ChainStatsCollector)(nil)

func NewChainStatsCollector(api ChainAPI, metrics *Metrics) *ChainStatsCollector {
	return &ChainStatsCollector{
		baseCollector: baseCollector{log: logr.Discard()},
		api:           api,
		metrics:       metrics,
	}
}

func (c *ChainStatsCollector) Name() string {
	return "chain-stats"
}

func (c *ChainStatsCollector) NeedsIdentity() bool {
	return false
}

func (c *ChainStatsCollector) Collect(ctx context.Context, _ Identity) error {
	height, err := c.api.Height(ctx)
	if err != nil {
		return fmt.Errorf("chain height: %w", err)
	}

	c.metrics.ChainStats.WithLabelValues("height").Set(float64(height))

	staked, err := c.api.StakedValidators(ctx)
	if err != nil {
		return fmt.Errorf("validator stats: %w", err)
	}

	c.metrics.ChainStats.
		WithLabelValues("staked_validators").
		Set(float64(staked))

	return nil
}
