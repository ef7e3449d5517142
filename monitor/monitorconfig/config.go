// Package monitorconfig contains configuration options for the chain
// monitor, in the shape the teacher's own miveconfig package uses: a plain
// struct decoded from TOML by cmd/monitor, with a toml struct tag marking
// the one field that does not round-trip (the in-process IPFS provider).
package monitorconfig

import (
	"context"
	"time"
)

// ChainConfig describes one blockchain the monitor should tail. Entries of
// CustomChains are used as given, so their ChainID must be set explicitly;
// the default chains take theirs from DefaultChainID.
type ChainConfig struct {
	Name     string
	Endpoint string
	ChainID  uint64
}

// Config contains configuration options for the chain monitor, matching
// SPEC_FULL.md §6.4 exactly plus the ambient fields a running process
// needs (log output).
type Config struct {
	// InfuraPID is the Infura project id used to build the default chain
	// endpoints "https://<chain>.infura.io/v3/<InfuraPID>".
	InfuraPID string

	// CustomChains, when non-empty, replaces the default chain set
	// {mainnet, ropsten, rinkeby, kovan, goerli} entirely.
	CustomChains []ChainConfig `toml:",omitempty"`

	// SwarmGateway is the base URL prepended to Swarm gateway requests.
	SwarmGateway string

	// IpfsCatRequest is the URL prefix prepended to an IPFS CID when no
	// IpfsProvider is configured.
	IpfsCatRequest string

	// IpfsProvider is an optional in-process IPFS client. Not
	// TOML-serializable; set programmatically.
	IpfsProvider IPFSProvider `toml:"-"`

	// Repository is the filesystem path artifacts are written under.
	Repository string

	// BlockTime is the interval shared by all three tickers.
	BlockTime time.Duration

	// LogFile, when set, additionally routes logs through a rotating
	// file writer (see DESIGN.md's cmd/monitor section).
	LogFile string `toml:",omitempty"`
}

// IPFSProvider is an in-process IPFS client. It is declared here, rather
// than imported from the monitor package, to keep monitorconfig free of a
// dependency on monitor; monitor.IPFSProvider has the identical method
// set and the two are interchangeable wherever either is expected.
type IPFSProvider interface {
	Cat(ctx context.Context, path string) ([]byte, error)
}

// Default returns the configuration SPEC_FULL.md §6.4 describes as the
// out-of-the-box defaults.
func Default() *Config {
	return &Config{
		SwarmGateway:   "https://swarm-gateways.net/",
		IpfsCatRequest: "https://ipfs.infura.io:5001/api/v0/cat?arg=",
		Repository:     "repository",
		BlockTime:      15 * time.Second,
	}
}

// DefaultChainNames are the chains tailed when CustomChains is empty.
var DefaultChainNames = []string{"mainnet", "ropsten", "rinkeby", "kovan", "goerli"}

// defaultChainIDs are the well-known chain IDs backing sender recovery
// (EIP-155) for the default chain set.
var defaultChainIDs = map[string]uint64{
	"mainnet": 1,
	"ropsten": 3,
	"rinkeby": 4,
	"kovan":   42,
	"goerli":  5,
}

// DefaultChainID returns the well-known chain ID for one of
// DefaultChainNames, or false if name isn't one of them.
func DefaultChainID(name string) (uint64, bool) {
	id, ok := defaultChainIDs[name]
	return id, ok
}

// Endpoint builds the default Infura JSON-RPC endpoint for a chain name.
func (c *Config) Endpoint(chainName string) string {
	return "https://" + chainName + ".infura.io/v3/" + c.InfuraPID
}
