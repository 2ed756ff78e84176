package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
)

// ledgerRecordKind names the shapes a `miner ledger validators` CSV
// line can take. Which grammar applies is inferred from the field
// count; there is no header tag or version marker in the output.
type ledgerRecordKind int

const (
	ledgerRecordUnknown ledgerRecordKind = iota
	ledgerRecordBlank
	ledgerRecordHeader
	ledgerRecordValidator
)

// ledgerRow is one validator's ledger entry. Penalty fields stay as
// raw tokens until coercion so a malformed field degrades to a logged
// skip rather than a lost row.
type ledgerRow struct {
	Name               string
	OwnerAddress       string
	LastHeartbeat      string
	Stake              string
	Status             string
	Version            string
	TenurePenalty      string
	DKGPenalty         string
	PerformancePenalty string
	TotalPenalty       string
}

func classifyLedgerRecord(line string, fields []string) ledgerRecordKind {
	switch {
	case line == "":
		return ledgerRecordBlank
	case len(fields) != 10:
		return ledgerRecordUnknown
	case fields[0] == "name" && fields[1] == "owner_address":
		return ledgerRecordHeader
	default:
		return ledgerRecordValidator
	}
}

func parseLedgerRow(fields []string) ledgerRow {
	return ledgerRow{
		Name:               fields[0],
		OwnerAddress:       fields[1],
		LastHeartbeat:      fields[2],
		Stake:              fields[3],
		Status:             fields[4],
		Version:            fields[5],
		TenurePenalty:      fields[6],
		DKGPenalty:         fields[7],
		PerformancePenalty: fields[8],
		TotalPenalty:       fields[9],
	}
}

// LedgerValidatorsCollector extracts this validator's penalty scores
// and heartbeat age from the chain ledger table.
type LedgerValidatorsCollector struct {
	baseCollector

	runner  CommandRunner
	metrics *Metrics
}

var _ Collector = (*LedgerValidatorsCollector)(nil)

func NewLedgerValidatorsCollector(runner CommandRunner, metrics *Metrics) *LedgerValidatorsCollector {
	return &LedgerValidatorsCollector{
		baseCollector: baseCollector{log: logr.Discard()},
		runner:        runner,
		metrics:       metrics,
	}
}

func (c *LedgerValidatorsCollector) Name() string {
	return "ledger-validators"
}

func (c *LedgerValidatorsCollector) NeedsIdentity() bool {
	return true
}

func (c *LedgerValidatorsCollector) Collect(ctx context.Context, id Identity) error {
	out, err := c.runner.Run(ctx, "miner ledger validators --format csv")
	if err != nil {
		return fmt.Errorf("miner ledger validators: %w", err)
	}

	for _, line := range splitLines(out) {
		fields := strings.Split(line, ",")

		switch classifyLedgerRecord(line, fields) {
		case ledgerRecordBlank, ledgerRecordHeader:
			continue
		case ledgerRecordValidator:
			row := parseLedgerRow(fields)
			if row.Name != id.Name {
				continue
			}

			c.collectRow(row, id)
		default:
			c.log.Info("failed to grok ledger line",
				"fields", len(fields), "line", line)
		}
	}

	// Zero matching rows is not an error: the gauges simply keep
	// their previous values.
	return nil
}

func (c *LedgerValidatorsCollector) collectRow(row ledgerRow, id Identity) {
	penalties := []struct {
		subtype string
		token   string
	}{
		{"tenure", row.TenurePenalty},
		{"dkg", row.DKGPenalty},
		{"performance", row.PerformancePenalty},
		{"total", row.TotalPenalty},
	}

	for _, p := range penalties {
		value, ok := Coerce(p.token).AsFloat()
		if !ok {
			c.log.Info("non-numeric penalty, skipping",
				"subtype", p.subtype, "token", p.token)
			continue
		}

		c.metrics.LedgerPenalty.
			WithLabelValues("ledger_penalties", p.subtype, id.Name).
			Set(value)
	}

	heartbeat, ok := Coerce(row.LastHeartbeat).AsFloat()
	if !ok {
		c.log.Info("non-numeric last heartbeat, skipping",
			"token", row.LastHeartbeat)
		return
	}

	c.metrics.BlockAge.
		WithLabelValues("last_heartbeat", id.Name).
		Set(heartbeat)
}
