package collector

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics owns every metric handle exposed by the exporter. It is
// constructed once at process start against an injected registerer and
// handed to the scraper; nothing here is global.
//
// Values written in one cycle stay exposed until overwritten — gauges
// are not expired between cycles.
type Metrics struct {
	// SystemUsage holds current host resource usage,
	// resource_type ∈ {CPU, Memory}.
	SystemUsage *prometheus.GaugeVec

	// ChainStats holds stats about the global chain. The only vec
	// without a validator_name label: it is usable before identity
	// resolution.
	ChainStats *prometheus.GaugeVec

	// Height is the height of the validator's local blockchain.
	Height *prometheus.GaugeVec

	// InConsensus is 1 while the validator is in the consensus group.
	InConsensus *prometheus.GaugeVec

	// BlockAge carries the current block age and the ledger's
	// last-heartbeat age, keyed by resource_type.
	BlockAge *prometheus.GaugeVec

	// HbbftPerf carries the HBBFT performance counters, only
	// meaningful while in the consensus group.
	HbbftPerf *prometheus.GaugeVec

	// Connections is the number of libp2p connections.
	Connections *prometheus.GaugeVec

	// Sessions is the number of libp2p sessions.
	Sessions *prometheus.GaugeVec

	// SessionCountries counts peer sessions by remote country; only
	// written when a geoip database is configured.
	SessionCountries *prometheus.GaugeVec

	// LedgerPenalty carries the ledger penalty scores, keyed by
	// subtype ∈ {tenure, dkg, performance, total}.
	LedgerPenalty *prometheus.GaugeVec

	// Version is an info-style gauge: the series with the current
	// miner version as its `version` label is set to 1.
	Version *prometheus.GaugeVec

	// Balance is the balance of the validator's owner account, in HNT.
	Balance *prometheus.GaugeVec

	// ContainerUptime is seconds since the container was created
	// (state_type="create") and since it started (state_type="start").
	ContainerUptime *prometheus.GaugeVec

	// ScrapeTime summarizes how long full scrape cycles take.
	ScrapeTime *ScrapeTimer
}

// NewMetrics builds and registers every metric on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SystemUsage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "system_usage",
			Help: "Hold current system resource usage",
		}, []string{"resource_type", "validator_name"}),

		ChainStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "chain_stats",
			Help: "Stats about the global chain",
		}, []string{"resource_type"}),

		Height: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "validator_height",
			Help: "Height of the validator's blockchain",
		}, []string{"resource_type", "validator_name"}),

		InConsensus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "validator_inconsensus",
			Help: "Is validator currently in consensus group",
		}, []string{"validator_name"}),

		BlockAge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "validator_block_age",
			Help: "Age of the current block",
		}, []string{"resource_type", "validator_name"}),

		HbbftPerf: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "validator_hbbft_perf",
			Help: "HBBFT performance metrics from perf, only applies when in CG",
		}, []string{"resource_type", "subtype", "validator_name"}),

		Connections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "validator_connections",
			Help: "Number of libp2p connections",
		}, []string{"resource_type", "validator_name"}),

		Sessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "validator_sessions",
			Help: "Number of libp2p sessions",
		}, []string{"resource_type", "validator_name"}),

		SessionCountries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "validator_session_countries",
			Help: "Number of libp2p sessions by remote country",
		}, []string{"country", "validator_name"}),

		LedgerPenalty: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "validator_ledger",
			Help: "Validator performance metrics",
		}, []string{"resource_type", "subtype", "validator_name"}),

		Version: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "validator_version",
			Help: "Version number of the miner container",
		}, []string{"validator_name", "version"}),

		Balance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "validator_api_balance",
			Help: "Balance of the validator owner account",
		}, []string{"validator_name"}),

		ContainerUptime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "validator_container_uptime",
			Help: "Time container has been at a given state",
		}, []string{"state_type", "validator_name"}),

		ScrapeTime: NewScrapeTimer(
			"validator_scrape_time",
			"Time spent collecting miner data",
		),
	}

	reg.MustRegister(
		m.SystemUsage,
		m.ChainStats,
		m.Height,
		m.InConsensus,
		m.BlockAge,
		m.HbbftPerf,
		m.Connections,
		m.Sessions,
		m.SessionCountries,
		m.LedgerPenalty,
		m.Version,
		m.Balance,
		m.ContainerUptime,
		m.ScrapeTime,
	)

	return m
}
