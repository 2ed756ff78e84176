package collector

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
)

// InConsensusCollector reports whether the validator is currently a
// member of the consensus group.
type InConsensusCollector struct {
	baseCollector

	runner  CommandRunner
	metrics *Metrics
}

var _ Collector = (*InConsensusCollector)(nil)

func NewInConsensusCollector(runner CommandRunner, metrics *Metrics) *InConsensusCollector {
	return &InConsensusCollector{
		baseCollector: baseCollector{log: logr.Discard()},
		runner:        runner,
		metrics:       metrics,
	}
}

func (c *InConsensusCollector) Name() string {
	return "in-consensus"
}

func (c *InConsensusCollector) NeedsIdentity() bool {
	return true
}

// Collect sets the gauge to 1 only when the miner answers exactly
// "true"; any other answer, including errors it prints, counts as 0.
func (c *InConsensusCollector) Collect(ctx context.Context, id Identity) error {
	out, err := c.runner.Run(ctx, "miner info in_consensus")
	if err != nil {
		return fmt.Errorf("miner info in_consensus: %w", err)
	}

	inConsensus := 0.0
	if out == "true" {
		inConsensus = 1.0
	}

	c.log.V(1).Info("in consensus?", "answer", out)
	c.metrics.InConsensus.WithLabelValues(id.Name).Set(inConsensus)

	return nil
}
