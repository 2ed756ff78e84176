package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
)

// hbbftRecordKind names the shapes a `miner hbbft perf` CSV line can
// take, inferred from the field count. The table only carries a row
// for this validator while it is in the consensus group; rows for
// other validators are ignored.
//
//	name,bba_completions,seen_votes,last_bba,last_seen,tenure,penalty
//	name,bba_completions,seen_votes,last_bba,last_seen,penalty
type hbbftRecordKind int

const (
	hbbftRecordUnknown hbbftRecordKind = iota
	hbbftRecordBlank
	hbbftRecordWithTenure
	hbbftRecordNoTenure
	hbbftRecordOtherValidator
)

func classifyHbbftRecord(line string, fields []string, name string) hbbftRecordKind {
	switch {
	case line == "":
		return hbbftRecordBlank
	case len(fields) == 7 && fields[0] == name:
		return hbbftRecordWithTenure
	case len(fields) == 6 && fields[0] == name:
		return hbbftRecordNoTenure
	case len(fields) == 6:
		return hbbftRecordOtherValidator
	default:
		return hbbftRecordUnknown
	}
}

// hbbftStats is the carried accumulator: the last-known performance
// counters, persisted across scrape cycles. When the validator drops
// out of the consensus group and its row disappears, these values keep
// being re-emitted so the series stay fresh instead of resetting to
// zero mid-election.
type hbbftStats struct {
	BBAVotes  float64
	BBATotal  float64
	SeenVotes float64
	SeenTotal float64
	BBALast   float64
	SeenLast  float64
	Tenure    float64
	Penalty   float64
}

// HbbftPerfCollector reports the validator's HBBFT consensus
// performance counters.
type HbbftPerfCollector struct {
	baseCollector

	runner  CommandRunner
	metrics *Metrics

	// stats lives for the process lifetime, not per cycle.
	stats hbbftStats
}

var _ Collector = (*HbbftPerfCollector)(nil)

func NewHbbftPerfCollector(runner CommandRunner, metrics *Metrics) *HbbftPerfCollector {
	return &HbbftPerfCollector{
		baseCollector: baseCollector{log: logr.Discard()},
		runner:        runner,
		metrics:       metrics,
	}
}

func (c *HbbftPerfCollector) Name() string {
	return "hbbft-perf"
}

func (c *HbbftPerfCollector) NeedsIdentity() bool {
	return true
}

func (c *HbbftPerfCollector) Collect(ctx context.Context, id Identity) error {
	out, err := c.runner.Run(ctx, "miner hbbft perf --format csv")
	if err != nil {
		return fmt.Errorf("miner hbbft perf: %w", err)
	}

	lines := splitLines(out)

	for _, line := range lines {
		fields := strings.Split(line, ",")
		for i, f := range fields {
			fields[i] = strings.TrimSpace(f)
		}

		switch classifyHbbftRecord(line, fields, id.Name) {
		case hbbftRecordWithTenure:
			c.updateStats(fields, true)
		case hbbftRecordNoTenure:
			c.updateStats(fields, false)
		case hbbftRecordBlank, hbbftRecordOtherValidator:
		default:
			c.log.V(1).Info("wrong field count for hbbft line",
				"fields", len(fields), "line", line)
		}

		// Emit on every line, matched or not, so the accumulator's
		// values refresh even when the validator's row is gone.
		c.emit(id)
	}

	if len(lines) == 0 {
		c.emit(id)
	}

	return nil
}

// updateStats folds one matched row into the accumulator. A field
// that fails to parse keeps its previous value.
func (c *HbbftPerfCollector) updateStats(fields []string, hasTenure bool) {
	c.updateRatio(&c.stats.BBAVotes, &c.stats.BBATotal, fields[1], "bba")
	c.updateRatio(&c.stats.SeenVotes, &c.stats.SeenTotal, fields[2], "seen")
	c.updateFloat(&c.stats.BBALast, fields[3], "last_bba")
	c.updateFloat(&c.stats.SeenLast, fields[4], "last_seen")

	if hasTenure {
		c.updateFloat(&c.stats.Tenure, fields[5], "tenure")
		c.updateFloat(&c.stats.Penalty, fields[6], "penalty")
		return
	}

	c.updateFloat(&c.stats.Penalty, fields[5], "penalty")
}

// updateRatio parses a "votes/total" token, e.g. "5/5" or "237/237".
func (c *HbbftPerfCollector) updateRatio(votes, total *float64, token, what string) {
	parts := strings.SplitN(token, "/", 2)
	if len(parts) != 2 {
		c.log.Info("malformed ratio", "what", what, "token", token)
		return
	}

	v, vok := Coerce(parts[0]).AsFloat()
	t, tok := Coerce(parts[1]).AsFloat()
	if !vok || !tok {
		c.log.Info("non-numeric ratio", "what", what, "token", token)
		return
	}

	*votes, *total = v, t
}

func (c *HbbftPerfCollector) updateFloat(dst *float64, token, what string) {
	v, ok := Coerce(token).AsFloat()
	if !ok {
		c.log.Info("non-numeric field", "what", what, "token", token)
		return
	}

	*dst = v
}

func (c *HbbftPerfCollector) emit(id Identity) {
	set := func(subtype string, value float64) {
		c.metrics.HbbftPerf.
			WithLabelValues("hbbft_perf", subtype, id.Name).
			Set(value)
	}

	set("Penalty", c.stats.Penalty)
	set("BBA_Total", c.stats.BBATotal)
	set("BBA_Votes", c.stats.BBAVotes)
	set("Seen_Total", c.stats.SeenTotal)
	set("Seen_Votes", c.stats.SeenVotes)
	set("BBA_Last", c.stats.BBALast)
	set("Seen_Last", c.stats.SeenLast)
	set("Tenure", c.stats.Tenure)
}
