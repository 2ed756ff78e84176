package collector

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
)

// BlockAgeCollector reports the age of the validator's current block.
type BlockAgeCollector struct {
	baseCollector

	runner  CommandRunner
	metrics *Metrics
}

var _ Collector = (*BlockAgeCollector)(nil)

func NewBlockAgeCollector(runner CommandRunner, metrics *Metrics) *BlockAgeCollector {
	return &BlockAgeCollector{
		baseCollector: baseCollector{log: logr.Discard()},
		runner:        runner,
		metrics:       metrics,
	}
}

func (c *BlockAgeCollector) Name() string {
	return "block-age"
}

func (c *BlockAgeCollector) NeedsIdentity() bool {
	return true
}

func (c *BlockAgeCollector) Collect(ctx context.Context, id Identity) error {
	out, err := c.runner.Run(ctx, "miner info block_age")
	if err != nil {
		return fmt.Errorf("miner info block_age: %w", err)
	}

	age := Coerce(out)
	if age.Kind != KindInt {
		return fmt.Errorf("non-integer block age: '%s'", out)
	}

	c.metrics.BlockAge.
		WithLabelValues("BlockAge", id.Name).
		Set(float64(age.Int))

	return nil
}
