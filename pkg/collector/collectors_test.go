package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHeightCollector(t *testing.T) {
	cases := []struct {
		name    string
		out     string
		wantErr bool
		want    float64
	}{
		{name: "height tuple", out: "5356 914976", want: 914976},
		{name: "single token", out: "914976", wantErr: true},
		{name: "non-numeric", out: "5356 pending", wantErr: true},
		{name: "empty", out: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &fakeRunner{outputs: map[string]string{
				"miner info height": tc.out,
			}}
			metrics := newTestMetrics(t)
			c := NewHeightCollector(runner, metrics)

			err := c.Collect(context.Background(), testIdentity)

			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if n := testutil.CollectAndCount(metrics.Height); n != 0 {
					t.Errorf("gauge written on error: %d series", n)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := testutil.ToFloat64(metrics.Height.WithLabelValues(
				"Height", testIdentity.Name,
			))
			if got != tc.want {
				t.Errorf("height: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBlockAgeCollector(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"miner info block_age": "120",
	}}
	metrics := newTestMetrics(t)
	c := NewBlockAgeCollector(runner, metrics)

	if err := c.Collect(context.Background(), testIdentity); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := testutil.ToFloat64(metrics.BlockAge.WithLabelValues(
		"BlockAge", testIdentity.Name,
	))
	if got != 120 {
		t.Errorf("block age: got %v, want 120", got)
	}
}

func TestBlockAgeCollector_NonNumeric(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"miner info block_age": "unknown",
	}}
	metrics := newTestMetrics(t)
	c := NewBlockAgeCollector(runner, metrics)

	if err := c.Collect(context.Background(), testIdentity); err == nil {
		t.Fatal("expected error")
	}

	if n := testutil.CollectAndCount(metrics.BlockAge); n != 0 {
		t.Errorf("gauge written on error: %d series", n)
	}
}

func TestInConsensusCollector(t *testing.T) {
	cases := []struct {
		out  string
		want float64
	}{
		{out: "true", want: 1},
		{out: "false", want: 0},
		{out: "True", want: 0},
		{out: "error: miner not started", want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.out, func(t *testing.T) {
			runner := &fakeRunner{outputs: map[string]string{
				"miner info in_consensus": tc.out,
			}}
			metrics := newTestMetrics(t)
			c := NewInConsensusCollector(runner, metrics)

			if err := c.Collect(context.Background(), testIdentity); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := testutil.ToFloat64(
				metrics.InConsensus.WithLabelValues(testIdentity.Name))
			if got != tc.want {
				t.Errorf("in consensus: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBalanceCollector(t *testing.T) {
	metrics := newTestMetrics(t)
	c := NewBalanceCollector(healthyAPI(), metrics)

	if err := c.Collect(context.Background(), testIdentity); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := testutil.ToFloat64(
		metrics.Balance.WithLabelValues(testIdentity.Name))
	if got != 12345 {
		t.Errorf("balance: got %v, want 12345", got)
	}
}

func TestBalanceCollector_OwnerLookupFails(t *testing.T) {
	api := healthyAPI()
	api.validatorErr = errors.New("api down")

	metrics := newTestMetrics(t)
	c := NewBalanceCollector(api, metrics)

	if err := c.Collect(context.Background(), testIdentity); err == nil {
		t.Fatal("expected error")
	}

	if n := testutil.CollectAndCount(metrics.Balance); n != 0 {
		t.Errorf("gauge written on error: %d series", n)
	}
}
