package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
)

// HeightCollector reports the validator's local chain height.
type HeightCollector struct {
	baseCollector

	runner  CommandRunner
	metrics *Metrics
}

var _ Collector = (*HeightCollector)(nil)

func NewHeightCollector(runner CommandRunner, metrics *Metrics) *HeightCollector {
	return &HeightCollector{
		baseCollector: baseCollector{log: logr.Discard()},
		runner:        runner,
		metrics:       metrics,
	}
}

func (c *HeightCollector) Name() string {
	return "miner-height"
}

func (c *HeightCollector) NeedsIdentity() bool {
	return true
}

// Collect parses `miner info height` output, a 2-tuple of epoch and
// height; the second token is the local chain height.
func (c *HeightCollector) Collect(ctx context.Context, id Identity) error {
	out, err := c.runner.Run(ctx, "miner info height")
	if err != nil {
		return fmt.Errorf("miner info height: %w", err)
	}

	fields := strings.Fields(out)
	if len(fields) < 2 {
		return fmt.Errorf("unexpected height output: '%s'", out)
	}

	height, ok := Coerce(fields[1]).AsFloat()
	if !ok {
		return fmt.Errorf("non-numeric height: '%s'", fields[1])
	}

	c.metrics.Height.WithLabelValues("Height", id.Name).Set(height)

	return nil
}
