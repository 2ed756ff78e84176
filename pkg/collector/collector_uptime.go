package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
)

// ContainerUptimeCollector reports how long the validator container
// has existed and how long its current run has been up.
type ContainerUptimeCollector struct {
	baseCollector

	containers ContainerInfo
	metrics    *Metrics

	// now is swappable for tests.
	now func() time.Time
}

var _ Collector = (*ContainerUptimeCollector)(nil)

func NewContainerUptimeCollector(containers ContainerInfo, metrics *Metrics) *ContainerUptimeCollector {
	return &ContainerUptimeCollector{
		baseCollector: baseCollector{log: logr.Discard()},
		containers:    containers,
		metrics:       metrics,
		now:           time.Now,
	}
}

func (c *ContainerUptimeCollector) Name() string {
	return "container-uptime"
}

func (c *ContainerUptimeCollector) NeedsIdentity() bool {
	return true
}

func (c *ContainerUptimeCollector) Collect(ctx context.Context, id Identity) error {
	created, started, err := c.containers.Times(ctx)
	if err != nil {
		return fmt.Errorf("container times: %w", err)
	}

	now := c.now().UTC()

	c.metrics.ContainerUptime.
		WithLabelValues("create", id.Name).
		Set(now.Sub(created).Seconds())

	c.metrics.ContainerUptime.
		WithLabelValues("start", id.Name).
		Set(now.Sub(started).Seconds())

	return nil
}
