package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/zapr"
	"github.com/oschwald/geoip2-golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/heliumpack/validator-exporter/pkg/chainapi"
	"github.com/heliumpack/validator-exporter/pkg/collector"
	"github.com/heliumpack/validator-exporter/pkg/config"
	"github.com/heliumpack/validator-exporter/pkg/exporter"
	"github.com/heliumpack/validator-exporter/pkg/miner"
)

type command struct {
	bindAddr      string
	telemetryPath string
	configPath    string
	geoIPFilepath string

	containerName string
	apiBaseURL    string
	updatePeriod  time.Duration
	execTimeout   time.Duration
	enableRPC     bool
}

func (c *command) Cmd() *cobra.Command {
	env := config.Default()

	cmd := &cobra.Command{
		Use:   "validator-exporter",
		Short: "Prometheus exporter for helium validator metrics",
		RunE:  c.RunE,
	}

	cmd.Flags().StringVar(&c.bindAddr, "bind-addr",
		":9825", "address to bind the prometheus server to")

	cmd.Flags().StringVar(&c.telemetryPath, "telemetry-path",
		"/metrics", "endpoint at which prometheus metrics are served")

	cmd.Flags().StringVar(&c.configPath, "config",
		"", "path of an optional TOML config file")
	_ = cmd.MarkFlagFilename("config")

	cmd.Flags().StringVar(&c.containerName, "container-name",
		env.ContainerName, "name (or name prefix) of the validator "+
			"container to exec miner commands in")

	cmd.Flags().StringVar(&c.apiBaseURL, "api-base-url",
		env.APIBaseURL, "base URL of the chain API (use "+
			"https://testnet-api.helium.wtf/v1 for testnet)")

	cmd.Flags().DurationVar(&c.updatePeriod, "update-period",
		env.UpdatePeriod(), "how long to sleep between scrape cycles")

	cmd.Flags().DurationVar(&c.execTimeout, "exec-timeout",
		env.ExecTimeout(), "timeout for each individual exec or "+
			"API call")

	cmd.Flags().BoolVar(&c.enableRPC, "enable-rpc",
		env.EnableRPC, "query the miner over RPC instead of exec "+
			"(reserved, currently inert)")

	cmd.Flags().StringVar(&c.geoIPFilepath, "geoip-filepath",
		"", "filepath of a geoip database file for session ip to "+
			"country resolution")
	_ = cmd.MarkFlagFilename("geoip-filepath")

	return cmd
}

// resolveConfig layers flag values over the file/env config for the
// fields that exist in both.
func (c *command) resolveConfig(flags *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}

	if flags.Flags().Changed("container-name") {
		cfg.ContainerName = c.containerName
	}
	if flags.Flags().Changed("api-base-url") {
		cfg.APIBaseURL = c.apiBaseURL
	}
	if flags.Flags().Changed("update-period") {
		cfg.UpdatePeriodSeconds = int(c.updatePeriod / time.Second)
	}
	if flags.Flags().Changed("exec-timeout") {
		cfg.ExecTimeoutSeconds = int(c.execTimeout / time.Second)
	}
	if flags.Flags().Changed("enable-rpc") {
		cfg.EnableRPC = c.enableRPC
	}

	return cfg, cfg.Validate()
}

func (c *command) RunE(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("zap new development: %w", err)
	}
	log := zapr.NewLogger(zapLogger)

	cfg, err := c.resolveConfig(cmd)
	if err != nil {
		return fmt.Errorf("resolve config: %w", err)
	}

	engine, err := miner.NewEngineClient()
	if err != nil {
		return fmt.Errorf("new engine client: %w", err)
	}
	defer engine.Close()

	minerClient := miner.NewClient(
		engine, cfg.ContainerName, log.WithName("miner"),
	)

	apiClient := chainapi.New(cfg.APIBaseURL)

	scraperOpts := []collector.ScraperOption{
		collector.WithPeriod(cfg.UpdatePeriod()),
		collector.WithCallTimeout(cfg.ExecTimeout()),
		collector.WithLogger(log.WithName("scraper")),
	}

	if c.geoIPFilepath != "" {
		db, err := geoip2.Open(c.geoIPFilepath)
		if err != nil {
			return fmt.Errorf("geoip open: %w", err)
		}
		defer db.Close()

		countryMapper := func(ip net.IP) (string, error) {
			res, err := db.Country(ip)
			if err != nil {
				return "", fmt.Errorf(
					"country '%s': %w", ip, err,
				)
			}

			return res.RegisteredCountry.IsoCode, nil
		}

		scraperOpts = append(scraperOpts,
			collector.WithCountryMapper(countryMapper),
		)
	}

	registry := prometheus.NewRegistry()
	metrics := collector.NewMetrics(registry)

	scraper := collector.NewScraper(
		minerClient, minerClient, apiClient, metrics, scraperOpts...,
	)

	prometheusExporter, err := exporter.New(
		registry,
		exporter.WithBindAddress(c.bindAddr),
		exporter.WithTelemetryPath(c.telemetryPath),
		exporter.WithLogger(log.WithName("exporter")),
	)
	if err != nil {
		return fmt.Errorf("new exporter: %w", err)
	}
	defer prometheusExporter.Close()

	scrapeDone := make(chan error, 1)
	go func() {
		scrapeDone <- scraper.Run(ctx)
	}()

	if err := prometheusExporter.Run(ctx); err != nil &&
		ctx.Err() == nil {
		return fmt.Errorf("prometheus exporter run: %w", err)
	}

	if err := <-scrapeDone; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scraper run: %w", err)
	}

	return nil
}
