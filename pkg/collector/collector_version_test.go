package collector

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

const versionsCommand = "miner versions"

func TestVersionCollector(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		versionsCommand: "Installed versions:\n* 0.1.48\tpermanent",
	}}
	metrics := newTestMetrics(t)
	c := NewVersionCollector(runner, metrics)

	if err := c.Collect(context.Background(), testIdentity); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := testutil.ToFloat64(metrics.Version.WithLabelValues(
		testIdentity.Name, "0.1.48",
	))
	if got != 1 {
		t.Errorf("version series: got %v, want 1", got)
	}
}

// An upgrade replaces the info series instead of leaving both versions
// exposed.
func TestVersionCollector_UpgradeReplacesSeries(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		versionsCommand: "Installed versions:\n* 0.1.48\tpermanent",
	}}
	metrics := newTestMetrics(t)
	c := NewVersionCollector(runner, metrics)

	if err := c.Collect(context.Background(), testIdentity); err != nil {
		t.Fatalf("first cycle: %v", err)
	}

	runner.outputs[versionsCommand] = "Installed versions:\n* 0.1.49\tpermanent"

	if err := c.Collect(context.Background(), testIdentity); err != nil {
		t.Fatalf("second cycle: %v", err)
	}

	if n := testutil.CollectAndCount(metrics.Version); n != 1 {
		t.Fatalf("got %d version series, want 1", n)
	}

	got := testutil.ToFloat64(metrics.Version.WithLabelValues(
		testIdentity.Name, "0.1.49",
	))
	if got != 1 {
		t.Errorf("new version series: got %v, want 1", got)
	}
}

// Output with no starred line writes nothing.
func TestVersionCollector_NoMatch(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		versionsCommand: "Installed versions:",
	}}
	metrics := newTestMetrics(t)
	c := NewVersionCollector(runner, metrics)

	if err := c.Collect(context.Background(), testIdentity); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := testutil.CollectAndCount(metrics.Version); n != 0 {
		t.Errorf("got %d version series, want 0", n)
	}
}
