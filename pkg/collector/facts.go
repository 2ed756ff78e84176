package collector

import (
	"context"
	"fmt"
	"regexp"

	"github.com/go-logr/logr"
)

// Identity is the validator's stable identity, resolved once at
// startup and used to label every metric.
type Identity struct {
	// Name is the validator's animal name, e.g.
	// "bright-fuchsia-sidewinder".
	Name string

	// Address is the validator's public key address.
	Address string
}

// printKeyPattern matches one line of `miner print_keys` output:
//
//	{pubkey,"1YBkf..."}.
//	{onboarding_key,"1YBkf..."}.
//	{animal_name,"one-two-three"}.
var printKeyPattern = regexp.MustCompile(`^\{([^,]+),"([^"]+)"\}\.`)

// parsePrintKeys decodes the key-print tuple lines into a key → value
// map. Lines that don't match the tuple shape are ignored.
func parsePrintKeys(out string) map[string]string {
	keys := map[string]string{}

	for _, line := range splitLines(out) {
		m := printKeyPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		keys[m[1]] = m[2]
	}

	return keys
}

// ResolveIdentity runs `miner print_keys` and extracts the validator's
// name and address.
//
// Note: the exporter this replaces reused a stale match variable when
// it saw the animal_name key, so the name label usually came out as
// whatever value preceded it in the output (typically an address).
// Here the animal_name value is read properly; the old behavior is
// pinned as a divergence in the tests.
func ResolveIdentity(ctx context.Context, runner CommandRunner, log logr.Logger) (Identity, error) {
	out, err := runner.Run(ctx, "miner print_keys")
	if err != nil {
		return Identity{}, fmt.Errorf("print keys: %w", err)
	}

	keys := parsePrintKeys(out)

	address, ok := keys["pubkey"]
	if !ok {
		return Identity{}, fmt.Errorf("no pubkey in print_keys output")
	}

	name, ok := keys["animal_name"]
	if !ok {
		log.Info("no animal_name in print_keys output, using address as name")
		name = address
	}

	return Identity{Name: name, Address: address}, nil
}
