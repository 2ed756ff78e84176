package collector

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
)

// bonesPerHNT is the fixed-point scale of API balances.
const bonesPerHNT = 1e8

// BalanceCollector reports the balance of the validator's owner
// account, resolved through two chained API lookups: validator →
// owner address → account balance.
type BalanceCollector struct {
	baseCollector

	api     ChainAPI
	metrics *Metrics
}

var _ Collector = (*BalanceCollector)(nil)

func NewBalanceCollector(api ChainAPI, metrics *Metrics) *BalanceCollector {
	return &BalanceCollector{
		baseCollector: baseCollector{log: logr.Discard()},
		api:           api,
		metrics:       metrics,
	}
}

func (c *BalanceCollector) Name() string {
	return "owner-balance"
}

func (c *BalanceCollector) NeedsIdentity() bool {
	return true
}

func (c *BalanceCollector) Collect(ctx context.Context, id Identity) error {
	validator, err := c.api.Validator(ctx, id.Address)
	if err != nil {
		return fmt.Errorf("validator '%s': %w", id.Address, err)
	}

	account, err := c.api.Account(ctx, validator.Owner)
	if err != nil {
		return fmt.Errorf("account '%s': %w", validator.Owner, err)
	}

	c.metrics.Balance.
		WithLabelValues(id.Name).
		Set(account.Balance / bonesPerHNT)

	return nil
}
