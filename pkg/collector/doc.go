// Package collector provides the core functionality of this exporter.
//
// Each data source the validator exposes (miner CLI subcommands run
// via docker exec, the chain HTTP API, the container's own metadata)
// gets one collector that decodes the source's output and writes typed
// observations into the shared Metrics set. The Scraper sequences the
// collectors on a fixed period, isolating failures so a broken source
// never takes the cycle down with it.
package collector
