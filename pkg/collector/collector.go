package collector

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/heliumpack/validator-exporter/pkg/chainapi"
)

// CommandRunner executes a miner CLI command inside the validator's
// process context and returns its raw text output.
type CommandRunner interface {
	Run(ctx context.Context, command string) (string, error)
}

// ContainerInfo exposes the validator container's lifecycle instants.
type ContainerInfo interface {
	Times(ctx context.Context) (created, started time.Time, err error)
}

// ChainAPI is the slice of the chain HTTP API that the collectors
// consume.
type ChainAPI interface {
	Height(ctx context.Context) (uint64, error)
	StakedValidators(ctx context.Context) (uint64, error)
	Validator(ctx context.Context, address string) (*chainapi.Validator, error)
	Account(ctx context.Context, address string) (*chainapi.Account, error)
}

// CountryMapper defines the signature of a function that given an IP,
// translates it into a country code.
//
//	f(ip) -> CN
//
// optional: collectors that take one treat nil as "no mapping".
type CountryMapper func(net.IP) (string, error)

// Collector is one data source's decode-and-write step.
//
// Collect must not write to the metrics set when its source fails or
// returns nothing usable: values from the previous cycle stay exposed
// instead of being clobbered with garbage.
type Collector interface {
	Name() string

	// NeedsIdentity reports whether Collect labels its metrics with
	// the validator identity and therefore must be skipped while the
	// identity is unresolved.
	NeedsIdentity() bool

	Collect(ctx context.Context, id Identity) error
}

// baseCollector carries the per-collector logger, handed out by the
// scraper at construction time.
type baseCollector struct {
	log logr.Logger
}

type loggerSetter interface {
	setLogger(log logr.Logger)
}

func (b *baseCollector) setLogger(log logr.Logger) {
	b.log = log
}

// splitLines splits command output into lines, tolerating CRLF
// endings. Empty input yields no lines.
func splitLines(out string) []string {
	if out == "" {
		return nil
	}

	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	return lines
}
