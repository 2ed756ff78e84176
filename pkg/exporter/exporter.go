// Package exporter serves the collected metrics over HTTP in the
// Prometheus text exposition format.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter is responsible for bringing up the web server that exposes
// the metrics registered on the gatherer it was handed.
//
// It reads the live metrics state while the scrape loop is mid-cycle;
// a scrape may therefore observe a mix of this cycle's and the last
// cycle's values, which is fine for gauges refreshed every period.
type Exporter struct {
	// listenAddress is the full address used to listen for scraping
	// requests.
	//
	// Examples:
	// - :9825
	// - 127.0.0.2:1313
	//
	listenAddress string

	// telemetryPath configures the path under which the metrics are
	// reported, e.g. /metrics.
	telemetryPath string

	gatherer prometheus.Gatherer

	// listener is the TCP listener used by the webserver. nil if no
	// server is running.
	listener net.Listener

	log logr.Logger
}

// Option overrides a default of the exporter.
type Option func(e *Exporter)

// WithBindAddress overrides the default :9825 listen address.
func WithBindAddress(v string) Option {
	return func(e *Exporter) {
		e.listenAddress = v
	}
}

// WithTelemetryPath overrides the default /metrics path.
func WithTelemetryPath(v string) Option {
	return func(e *Exporter) {
		e.telemetryPath = v
	}
}

// WithLogger overrides the default discard logger.
func WithLogger(log logr.Logger) Option {
	return func(e *Exporter) {
		e.log = log
	}
}

// New builds an exporter serving the metrics gathered by g.
func New(g prometheus.Gatherer, opts ...Option) (*Exporter, error) {
	if g == nil {
		return nil, fmt.Errorf("nil gatherer")
	}

	e := &Exporter{
		listenAddress: ":9825",
		telemetryPath: "/metrics",
		gatherer:      g,
		log:           logr.Discard(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Addr is the address the exporter is listening on, usable once Run
// has bound the listener (handy when binding to port 0 in tests).
func (e *Exporter) Addr() string {
	if e.listener == nil {
		return ""
	}

	return e.listener.Addr().String()
}

// Listen binds the TCP listener without serving yet.
func (e *Exporter) Listen() error {
	var err error

	e.listener, err = net.Listen("tcp", e.listenAddress)
	if err != nil {
		return fmt.Errorf("listen on '%s': %w", e.listenAddress, err)
	}

	return nil
}

// Run serves the metrics endpoint until ctx is cancelled.
//
// ps.: this is a BLOCKING method - make sure you either make use of
// goroutines to not block if needed.
func (e *Exporter) Run(ctx context.Context) error {
	if e.listener == nil {
		if err := e.Listen(); err != nil {
			return err
		}
	}

	mux := http.NewServeMux()
	mux.Handle(e.telemetryPath, promhttp.HandlerFor(
		e.gatherer, promhttp.HandlerOpts{},
	))

	server := &http.Server{Handler: mux}

	doneChan := make(chan error, 1)

	go func() {
		defer close(doneChan)

		e.log.Info("listening",
			"addr", e.listener.Addr().String(),
			"path", e.telemetryPath,
		)

		if err := server.Serve(e.listener); err != nil &&
			err != http.ErrServerClosed {
			doneChan <- fmt.Errorf(
				"serve on '%s': %w", e.listenAddress, err,
			)
		}
	}()

	select {
	case err := <-doneChan:
		if err != nil {
			return fmt.Errorf("donechan err: %w", err)
		}
	case <-ctx.Done():
		_ = server.Close()
		<-doneChan
		return ctx.Err()
	}

	return nil
}

// Close gracefully closes the tcp listener associated with it.
func (e *Exporter) Close() error {
	if e.listener == nil {
		return nil
	}

	e.log.Info("closing")
	if err := e.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("close: %w", err)
	}

	return nil
}
