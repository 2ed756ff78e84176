package collector

import (
	"context"
	"fmt"
	"regexp"

	"github.com/go-logr/logr"
)

// versionPattern matches the active entry of `miner versions` output:
//
//	Installed versions:
//	* 0.1.48	permanent
var versionPattern = regexp.MustCompile(`^\*\s+([\d.]+)(.*)`)

// VersionCollector reports the installed miner version as an
// info-style gauge: the series labeled with the current version is 1.
type VersionCollector struct {
	baseCollector

	runner  CommandRunner
	metrics *Metrics
}

var _ Collector = (*VersionCollector)(nil)

func NewVersionCollector(runner CommandRunner, metrics *Metrics) *VersionCollector {
	return &VersionCollector{
		baseCollector: baseCollector{log: logr.Discard()},
		runner:        runner,
		metrics:       metrics,
	}
}

func (c *VersionCollector) Name() string {
	return "miner-version"
}

func (c *VersionCollector) NeedsIdentity() bool {
	return true
}

func (c *VersionCollector) Collect(ctx context.Context, id Identity) error {
	out, err := c.runner.Run(ctx, "miner versions")
	if err != nil {
		return fmt.Errorf("miner versions: %w", err)
	}

	for _, line := range splitLines(out) {
		m := versionPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		version := m[1]
		c.log.V(1).Info("found miner version", "version", version)

		// Reset drops the series for a previously installed version
		// so an upgrade replaces the info series instead of
		// accumulating one per version.
		c.metrics.Version.Reset()
		c.metrics.Version.WithLabelValues(id.Name, version).Set(1)
	}

	return nil
}
