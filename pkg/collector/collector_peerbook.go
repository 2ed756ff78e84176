package collector

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/go-logr/logr"
)

// peerRecordKind names the shapes a `miner peer book -s` CSV line can
// take, inferred from the field count:
//
//	address,name,listen_addrs,connections,nat,last_updated   (self peer)
//	local,remote,p2p,name                                    (session)
//	/ip4/174.140.164.130/tcp/2154                            (listen addr)
type peerRecordKind int

const (
	peerRecordUnknown peerRecordKind = iota
	peerRecordSelf
	peerRecordSession
	peerRecordListenAddr
)

type peerSelfRow struct {
	Address     string
	Name        string
	ListenAddrs string
	Connections string
	NAT         string
	LastUpdate  string
}

type peerSessionRow struct {
	Local  string
	Remote string
	P2P    string
	Name   string
}

func classifyPeerRecord(fields []string) peerRecordKind {
	switch len(fields) {
	case 6:
		return peerRecordSelf
	case 4:
		return peerRecordSession
	case 1:
		return peerRecordListenAddr
	default:
		return peerRecordUnknown
	}
}

// PeerBookCollector reports the validator's libp2p connection count
// and the number of sessions it holds with other peers. With a
// country mapper configured it additionally tallies sessions by the
// remote peer's country.
type PeerBookCollector struct {
	baseCollector

	runner        CommandRunner
	metrics       *Metrics
	countryMapper CountryMapper
}

var _ Collector = (*PeerBookCollector)(nil)

func NewPeerBookCollector(runner CommandRunner, metrics *Metrics) *PeerBookCollector {
	return &PeerBookCollector{
		baseCollector: baseCollector{log: logr.Discard()},
		runner:        runner,
		metrics:       metrics,
	}
}

func (c *PeerBookCollector) Name() string {
	return "peer-book"
}

func (c *PeerBookCollector) NeedsIdentity() bool {
	return true
}

func (c *PeerBookCollector) Collect(ctx context.Context, id Identity) error {
	out, err := c.runner.Run(ctx, "miner peer book -s --format csv")
	if err != nil {
		return fmt.Errorf("miner peer book: %w", err)
	}

	sessions := 0
	countries := map[string]int{}

	for _, line := range splitLines(out) {
		fields := strings.Split(line, ",")

		switch classifyPeerRecord(fields) {
		case peerRecordSelf:
			row := peerSelfRow{
				Address:     fields[0],
				Name:        fields[1],
				ListenAddrs: fields[2],
				Connections: fields[3],
				NAT:         fields[4],
				LastUpdate:  fields[5],
			}

			conns := Coerce(row.Connections)
			if row.Name == id.Name && conns.Kind == KindInt {
				c.metrics.Connections.
					WithLabelValues("connections", id.Name).
					Set(float64(conns.Int))
			}
		case peerRecordSession:
			row := peerSessionRow{
				Local:  fields[0],
				Remote: fields[1],
				P2P:    fields[2],
				Name:   fields[3],
			}

			// The session block repeats its own header line, which
			// starts with the literal token "local".
			if row.Local == "local" {
				continue
			}

			sessions++
			c.tallyCountry(countries, row.Remote)
		case peerRecordListenAddr:
			// listen_addrs continuation, nothing to collect.
		default:
			c.log.Info("could not understand peer book line",
				"fields", len(fields), "line", line)
		}
	}

	c.metrics.Sessions.
		WithLabelValues("sessions", id.Name).
		Set(float64(sessions))

	if c.countryMapper != nil {
		c.metrics.SessionCountries.Reset()
		for country, n := range countries {
			c.metrics.SessionCountries.
				WithLabelValues(country, id.Name).
				Set(float64(n))
		}
	}

	return nil
}

// tallyCountry resolves the remote multiaddr of a session (e.g.
// /ip4/72.224.176.69/tcp/2154) to a country code and counts it.
func (c *PeerBookCollector) tallyCountry(countries map[string]int, remote string) {
	if c.countryMapper == nil {
		return
	}

	parts := strings.Split(remote, "/")
	if len(parts) < 3 || (parts[1] != "ip4" && parts[1] != "ip6") {
		return
	}

	ip := net.ParseIP(parts[2])
	if ip == nil {
		return
	}

	country, err := c.countryMapper(ip)
	if err != nil {
		c.log.V(1).Info("country lookup failed",
			"ip", parts[2], "err", err.Error())
		return
	}

	countries[country]++
}
