package collector

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// SystemUsageCollector samples host-level CPU and memory utilization.
// Whole-host numbers, not per-container ones; the validator is assumed
// to be the main tenant of the box.
type SystemUsageCollector struct {
	baseCollector

	metrics *Metrics
}

var _ Collector = (*SystemUsageCollector)(nil)

func NewSystemUsageCollector(metrics *Metrics) *SystemUsageCollector {
	return &SystemUsageCollector{
		baseCollector: baseCollector{log: logr.Discard()},
		metrics:       metrics,
	}
}

func (c *SystemUsageCollector) Name() string {
	return "system-usage"
}

func (c *SystemUsageCollector) NeedsIdentity() bool {
	return true
}

func (c *SystemUsageCollector) Collect(ctx context.Context, id Identity) error {
	cpuPercents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return fmt.Errorf("cpu percent: %w", err)
	}

	if len(cpuPercents) > 0 {
		c.metrics.SystemUsage.
			WithLabelValues("CPU", id.Name).
			Set(cpuPercents[0])
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return fmt.Errorf("virtual memory: %w", err)
	}

	c.metrics.SystemUsage.
		WithLabelValues("Memory", id.Name).
		Set(vm.UsedPercent)

	return nil
}
