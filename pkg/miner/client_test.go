package miner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/go-logr/logr"
)

type notFoundError struct{}

func (notFoundError) Error() string { return "no such container" }
func (notFoundError) NotFound()     {}

// fakeConn satisfies net.Conn for the hijacked exec stream.
type fakeConn struct{}

func (fakeConn) Read(_ []byte) (int, error)         { return 0, nil }
func (fakeConn) Write(b []byte) (int, error)        { return len(b), nil }
func (fakeConn) Close() error                       { return nil }
func (fakeConn) LocalAddr() net.Addr                { return nil }
func (fakeConn) RemoteAddr() net.Addr               { return nil }
func (fakeConn) SetDeadline(_ time.Time) error      { return nil }
func (fakeConn) SetReadDeadline(_ time.Time) error  { return nil }
func (fakeConn) SetWriteDeadline(_ time.Time) error { return nil }

type fakeEngine struct {
	containers []types.Container
	inspect    map[string]types.ContainerJSON

	execStdout string
	execStderr string
	execErr    error

	createdCmds [][]string
}

func (f *fakeEngine) ContainerList(_ context.Context, _ container.ListOptions) ([]types.Container, error) {
	return f.containers, nil
}

func (f *fakeEngine) ContainerInspect(_ context.Context, containerID string) (types.ContainerJSON, error) {
	res, ok := f.inspect[containerID]
	if !ok {
		return types.ContainerJSON{}, notFoundError{}
	}

	return res, nil
}

func (f *fakeEngine) ContainerExecCreate(_ context.Context, _ string, options container.ExecOptions) (types.IDResponse, error) {
	if f.execErr != nil {
		return types.IDResponse{}, f.execErr
	}

	f.createdCmds = append(f.createdCmds, options.Cmd)

	return types.IDResponse{ID: "exec-1"}, nil
}

func (f *fakeEngine) ContainerExecAttach(_ context.Context, _ string, _ container.ExecStartOptions) (types.HijackedResponse, error) {
	var framed bytes.Buffer

	if f.execStdout != "" {
		_, _ = stdcopy.NewStdWriter(&framed, stdcopy.Stdout).
			Write([]byte(f.execStdout))
	}
	if f.execStderr != "" {
		_, _ = stdcopy.NewStdWriter(&framed, stdcopy.Stderr).
			Write([]byte(f.execStderr))
	}

	return types.HijackedResponse{
		Conn:   fakeConn{},
		Reader: bufio.NewReader(&framed),
	}, nil
}

func inspectResult(id string) types.ContainerJSON {
	return types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{
			ID:      id,
			Created: "2021-05-18T22:11:48.962678927Z",
			State: &types.ContainerState{
				StartedAt: "2021-05-18T22:11:49.50436001Z",
			},
		},
	}
}

func TestClient_RunResolvesExactName(t *testing.T) {
	engine := &fakeEngine{
		inspect: map[string]types.ContainerJSON{
			"validator": inspectResult("abc123"),
		},
		execStdout: "5356 914976\n",
	}

	c := NewClient(engine, "validator", logr.Discard())

	out, err := c.Run(context.Background(), "miner info height")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out != "5356 914976" {
		t.Errorf("output: got %q, want trimmed height tuple", out)
	}

	if len(engine.createdCmds) != 1 {
		t.Fatalf("got %d execs, want 1", len(engine.createdCmds))
	}

	want := []string{"miner", "info", "height"}
	got := engine.createdCmds[0]
	if len(got) != len(want) {
		t.Fatalf("cmd: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cmd: got %v, want %v", got, want)
		}
	}
}

func TestClient_RunResolvesByPrefix(t *testing.T) {
	engine := &fakeEngine{
		containers: []types.Container{
			{ID: "zzz999", Names: []string{"/postgres"}},
			{ID: "abc123", Names: []string{"/validator.1.xyz"}},
		},
		inspect:    map[string]types.ContainerJSON{},
		execStdout: "true",
	}

	c := NewClient(engine, "validator", logr.Discard())

	out, err := c.Run(context.Background(), "miner info in_consensus")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out != "true" {
		t.Errorf("output: got %q, want true", out)
	}
}

func TestClient_RunNoContainer(t *testing.T) {
	engine := &fakeEngine{
		containers: []types.Container{
			{ID: "zzz999", Names: []string{"/postgres"}},
		},
		inspect: map[string]types.ContainerJSON{},
	}

	c := NewClient(engine, "validator", logr.Discard())

	if _, err := c.Run(context.Background(), "miner print_keys"); err == nil {
		t.Fatal("expected error")
	}
}

func TestClient_RunExecError(t *testing.T) {
	engine := &fakeEngine{
		inspect: map[string]types.ContainerJSON{
			"validator": inspectResult("abc123"),
		},
		execErr: errors.New("daemon unavailable"),
	}

	c := NewClient(engine, "validator", logr.Discard())

	if _, err := c.Run(context.Background(), "miner print_keys"); err == nil {
		t.Fatal("expected error")
	}
}

func TestClient_Times(t *testing.T) {
	engine := &fakeEngine{
		inspect: map[string]types.ContainerJSON{
			"validator": inspectResult("abc123"),
			"abc123":    inspectResult("abc123"),
		},
	}

	c := NewClient(engine, "validator", logr.Discard())

	created, started, err := c.Times(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantCreated := time.Date(2021, 5, 18, 22, 11, 48, 962678927, time.UTC)
	if !created.Equal(wantCreated) {
		t.Errorf("created: got %v, want %v", created, wantCreated)
	}

	if !started.After(created) {
		t.Errorf("started %v not after created %v", started, created)
	}
}
