// Package config resolves the exporter configuration from built-in
// defaults, environment variables, and an optional TOML file, in that
// order. Command-line flags are layered on top by the caller.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultAPIBaseURL points at the mainnet chain API. For testnet,
	// use https://testnet-api.helium.wtf/v1 instead.
	DefaultAPIBaseURL = "https://api.helium.io/v1"

	DefaultContainerName = "validator"
	DefaultUpdatePeriod  = 30 * time.Second
	DefaultExecTimeout   = 30 * time.Second
)

// Config carries everything the exporter needs to run. All fields can
// come from a TOML file; the environment variables named in Default
// keep parity with the deployment surface of the original exporter.
type Config struct {
	// UpdatePeriodSeconds is how long the scrape loop sleeps between
	// cycles.
	UpdatePeriodSeconds int `toml:"update_period"`

	// ContainerName is the name (or name prefix) of the validator
	// container whose miner CLI we exec into.
	ContainerName string `toml:"container_name"`

	// APIBaseURL is the base URL of the chain API.
	APIBaseURL string `toml:"api_base_url"`

	// ExecTimeoutSeconds bounds each individual exec / HTTP call so a
	// hung miner cannot stall the loop forever.
	ExecTimeoutSeconds int `toml:"exec_timeout"`

	// EnableRPC is reserved for querying the miner over its RPC port
	// instead of exec. Currently inert.
	EnableRPC bool `toml:"enable_rpc"`
}

// Default builds a Config from built-in defaults overlaid with the
// UPDATE_PERIOD, VALIDATOR_CONTAINER_NAME, API_BASE_URL and ENABLE_RPC
// environment variables.
func Default() Config {
	cfg := Config{
		UpdatePeriodSeconds: int(DefaultUpdatePeriod / time.Second),
		ContainerName:       DefaultContainerName,
		APIBaseURL:          DefaultAPIBaseURL,
		ExecTimeoutSeconds:  int(DefaultExecTimeout / time.Second),
	}

	if v := os.Getenv("UPDATE_PERIOD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.UpdatePeriodSeconds = n
		}
	}

	if v := os.Getenv("VALIDATOR_CONTAINER_NAME"); v != "" {
		cfg.ContainerName = v
	}

	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.APIBaseURL = v
	}

	if v := os.Getenv("ENABLE_RPC"); v != "" && v != "0" {
		cfg.EnableRPC = true
	}

	return cfg
}

// Load returns Default overlaid with the TOML file at path. An empty
// path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config '%s': %w", path, err)
	}

	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config '%s': %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config '%s': %w", path, err)
	}

	return cfg, nil
}

// Validate rejects values the scrape loop cannot work with.
func (c Config) Validate() error {
	if c.UpdatePeriodSeconds <= 0 {
		return fmt.Errorf("update_period must be positive, got %d",
			c.UpdatePeriodSeconds)
	}

	if c.ExecTimeoutSeconds <= 0 {
		return fmt.Errorf("exec_timeout must be positive, got %d",
			c.ExecTimeoutSeconds)
	}

	if c.ContainerName == "" {
		return fmt.Errorf("container_name must not be empty")
	}

	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url must not be empty")
	}

	return nil
}

// UpdatePeriod is UpdatePeriodSeconds as a duration.
func (c Config) UpdatePeriod() time.Duration {
	return time.Duration(c.UpdatePeriodSeconds) * time.Second
}

// ExecTimeout is ExecTimeoutSeconds as a duration.
func (c Config) ExecTimeout() time.Duration {
	return time.Duration(c.ExecTimeoutSeconds) * time.Second
}
