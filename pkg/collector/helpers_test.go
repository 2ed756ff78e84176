package collector

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/heliumpack/validator-exporter/pkg/chainapi"
)

// fakeRunner serves canned output per command string.
type fakeRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (r *fakeRunner) Run(_ context.Context, command string) (string, error) {
	r.calls = append(r.calls, command)

	if err, ok := r.errs[command]; ok {
		return "", err
	}

	out, ok := r.outputs[command]
	if !ok {
		return "", fmt.Errorf("unexpected command %q", command)
	}

	return out, nil
}

// fakeAPI is a test double for the chain API.
type fakeAPI struct {
	height       uint64
	heightErr    error
	staked       uint64
	stakedErr    error
	validators   map[string]*chainapi.Validator
	validatorErr error
	accounts     map[string]*chainapi.Account
	accountErr   error
}

func (a *fakeAPI) Height(_ context.Context) (uint64, error) {
	return a.height, a.heightErr
}

func (a *fakeAPI) StakedValidators(_ context.Context) (uint64, error) {
	return a.staked, a.stakedErr
}

func (a *fakeAPI) Validator(_ context.Context, address string) (*chainapi.Validator, error) {
	if a.validatorErr != nil {
		return nil, a.validatorErr
	}

	v, ok := a.validators[address]
	if !ok {
		return nil, fmt.Errorf("no validator %q", address)
	}

	return v, nil
}

func (a *fakeAPI) Account(_ context.Context, address string) (*chainapi.Account, error) {
	if a.accountErr != nil {
		return nil, a.accountErr
	}

	acc, ok := a.accounts[address]
	if !ok {
		return nil, fmt.Errorf("no account %q", address)
	}

	return acc, nil
}

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return NewMetrics(prometheus.NewRegistry())
}

var testIdentity = Identity{
	Name:    "bright-fuchsia-sidewinder",
	Address: "1YBkfTYH8iCvchuTevbCAbdni54geDjH95yopRRznZtAur3iPrM",
}
