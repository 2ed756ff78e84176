package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
)

func TestParsePrintKeys(t *testing.T) {
	out := `{pubkey,"1YBkfTYH8iCvchuTevbCAbdni54geDjH95yopRRznZtAur3iPrM"}.
{onboarding_key,"1YBkfOnboarding"}.
{animal_name,"bright-fuchsia-sidewinder"}.
not a tuple line`

	keys := parsePrintKeys(out)

	if len(keys) != 3 {
		t.Fatalf("got %d keys, want 3: %v", len(keys), keys)
	}

	if keys["pubkey"] != "1YBkfTYH8iCvchuTevbCAbdni54geDjH95yopRRznZtAur3iPrM" {
		t.Errorf("pubkey: got %q", keys["pubkey"])
	}

	if keys["animal_name"] != "bright-fuchsia-sidewinder" {
		t.Errorf("animal_name: got %q", keys["animal_name"])
	}
}

func TestResolveIdentity(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"miner print_keys": `{pubkey,"ADDR1"}.
{animal_name,"one-two-three"}.`,
	}}

	id, err := ResolveIdentity(context.Background(), runner, logr.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if id.Address != "ADDR1" {
		t.Errorf("address: got %q, want ADDR1", id.Address)
	}

	if id.Name != "one-two-three" {
		t.Errorf("name: got %q, want one-two-three", id.Name)
	}
}

// The exporter this replaces reused the previous match's value when it
// saw the animal_name key, so with pubkey parsed right before it the
// name came out as the address. This resolver reads the animal_name
// value itself; this test pins the deliberate divergence.
func TestResolveIdentity_QuirkCorrected(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"miner print_keys": `{pubkey,"ADDR1"}.
{animal_name,"ignored-under-old-behavior"}.`,
	}}

	id, err := ResolveIdentity(context.Background(), runner, logr.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if id.Name == "ADDR1" {
		t.Fatalf("name fell back to the stale-match behavior")
	}

	if id.Name != "ignored-under-old-behavior" {
		t.Errorf("name: got %q, want the animal_name value", id.Name)
	}
}

func TestResolveIdentity_NoAnimalName(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"miner print_keys": `{pubkey,"ADDR1"}.`,
	}}

	id, err := ResolveIdentity(context.Background(), runner, logr.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if id.Name != "ADDR1" {
		t.Errorf("name: got %q, want fallback to address", id.Name)
	}
}

func TestResolveIdentity_Failures(t *testing.T) {
	t.Run("command error", func(t *testing.T) {
		runner := &fakeRunner{errs: map[string]error{
			"miner print_keys": errors.New("container unreachable"),
		}}

		if _, err := ResolveIdentity(
			context.Background(), runner, logr.Discard(),
		); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("no pubkey", func(t *testing.T) {
		runner := &fakeRunner{outputs: map[string]string{
			"miner print_keys": `{animal_name,"one-two-three"}.`,
		}}

		if _, err := ResolveIdentity(
			context.Background(), runner, logr.Discard(),
		); err == nil {
			t.Fatal("expected error")
		}
	})
}
