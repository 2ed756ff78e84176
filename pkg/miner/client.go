// Package miner reaches the validator's miner CLI through the Docker
// engine: it resolves the validator container by name (or name prefix)
// and runs `miner ...` subcommands inside it, handing the raw text
// output to the collectors for decoding.
package miner

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/go-logr/logr"
)

// maxExecOutputBytes caps how much command output we keep. The miner
// tables are a few KiB at most; anything beyond this is noise.
const maxExecOutputBytes = 1 << 20

// DockerAPI is the subset of the Docker engine client that we rely on.
type DockerAPI interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error)
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
	ContainerExecCreate(ctx context.Context, containerID string, options container.ExecOptions) (types.IDResponse, error)
	ContainerExecAttach(ctx context.Context, execID string, options container.ExecStartOptions) (types.HijackedResponse, error)
}

var _ DockerAPI = (*client.Client)(nil)

// Client runs commands inside the validator container.
//
// The container ID is resolved lazily on first use and cached; a
// not-found error on a later call drops the cache so that a recreated
// container is picked up on the next cycle.
type Client struct {
	api  DockerAPI
	name string
	log  logr.Logger

	containerID string
}

// NewClient wires a miner client against the given engine API.
func NewClient(api DockerAPI, containerName string, log logr.Logger) *Client {
	return &Client{
		api:  api,
		name: containerName,
		log:  log.WithValues("container", containerName),
	}
}

// NewEngineClient builds the real Docker engine client from the
// standard DOCKER_HOST environment, negotiating the API version with
// the daemon.
func NewEngineClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("new docker client: %w", err)
	}

	return cli, nil
}

// resolve finds the validator container: first by exact name, then by
// prefix match among the running containers.
func (c *Client) resolve(ctx context.Context) (string, error) {
	if c.containerID != "" {
		return c.containerID, nil
	}

	res, err := c.api.ContainerInspect(ctx, c.name)
	if err == nil {
		c.containerID = res.ID
		return c.containerID, nil
	}

	if !client.IsErrNotFound(err) {
		return "", fmt.Errorf("inspect container '%s': %w", c.name, err)
	}

	containers, err := c.api.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("list containers: %w", err)
	}

	for _, cont := range containers {
		for _, name := range cont.Names {
			if strings.HasPrefix(strings.TrimPrefix(name, "/"), c.name) {
				c.log.V(1).Info("resolved container by prefix",
					"id", cont.ID, "name", name)
				c.containerID = cont.ID
				return c.containerID, nil
			}
		}
	}

	return "", fmt.Errorf("no container named (or prefixed) '%s'", c.name)
}

// Run executes the command inside the validator container and returns
// its combined stdout with the trailing newline trimmed.
func (c *Client) Run(ctx context.Context, command string) (string, error) {
	id, err := c.resolve(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve: %w", err)
	}

	execResp, err := c.api.ContainerExecCreate(ctx, id, container.ExecOptions{
		Cmd:          strings.Fields(command),
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		if client.IsErrNotFound(err) {
			c.containerID = ""
		}
		return "", fmt.Errorf("exec create '%s': %w", command, err)
	}

	attach, err := c.api.ContainerExecAttach(ctx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return "", fmt.Errorf("exec attach '%s': %w", command, err)
	}
	defer attach.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(
		limitWriter(&stdout), limitWriter(&stderr), attach.Reader,
	); err != nil {
		return "", fmt.Errorf("exec read '%s': %w", command, err)
	}

	if stderr.Len() > 0 {
		c.log.V(1).Info("command wrote to stderr",
			"command", command,
			"stderr", strings.TrimSpace(stderr.String()))
	}

	return strings.TrimRight(stdout.String(), "\n"), nil
}

// Times returns the container's Created and State.StartedAt instants.
func (c *Client) Times(ctx context.Context) (created, started time.Time, err error) {
	id, err := c.resolve(ctx)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("resolve: %w", err)
	}

	res, err := c.api.ContainerInspect(ctx, id)
	if err != nil {
		if client.IsErrNotFound(err) {
			c.containerID = ""
		}
		return time.Time{}, time.Time{}, fmt.Errorf("inspect: %w", err)
	}

	created, err = time.Parse(time.RFC3339Nano, res.Created)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf(
			"parse created '%s': %w", res.Created, err)
	}

	if res.State == nil {
		return created, time.Time{}, fmt.Errorf("container has no state")
	}

	started, err = time.Parse(time.RFC3339Nano, res.State.StartedAt)
	if err != nil {
		return created, time.Time{}, fmt.Errorf(
			"parse started-at '%s': %w", res.State.StartedAt, err)
	}

	return created, started, nil
}

type cappedWriter struct {
	buf *bytes.Buffer
}

func limitWriter(buf *bytes.Buffer) *cappedWriter {
	return &cappedWriter{buf: buf}
}

// Write keeps the writer contract for the exec pipe while silently
// dropping output past the cap.
func (w *cappedWriter) Write(p []byte) (int, error) {
	remaining := maxExecOutputBytes - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}

	if len(p) > remaining {
		w.buf.Write(p[:remaining])
		return len(p), nil
	}

	w.buf.Write(p)
	return len(p), nil
}
