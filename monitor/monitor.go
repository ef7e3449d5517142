// Package monitor implements the three-stage discovery and ingestion
// pipeline described in SPEC_FULL.md: block tailing and contract-creation
// detection, bytecode footer decoding and metadata fetching, and
// per-source fetching — one instance of each running per configured
// blockchain, driven by three shared tickers.
package monitor

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/sourcify-eth/chain-monitor/monitor/monitorconfig"
)

// Monitor owns a set of chain contexts and the tickers that drive them.
// The zero value is not usable; construct with New.
type Monitor struct {
	cfg *monitorconfig.Config

	swarm *swarmGateway
	ipfs  *ipfsGateway
	repo  Writer

	mu     sync.Mutex
	chains map[string]*chain
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Monitor from cfg and a repository Writer. The monitor
// does not dial any chain or start any ticker until Start is called.
func New(cfg *monitorconfig.Config, repo Writer) *Monitor {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return &Monitor{
		cfg:   cfg,
		swarm: newSwarmGateway(cfg.SwarmGateway, httpClient),
		ipfs:  newIPFSGateway(cfg.IpfsProvider, cfg.IpfsCatRequest, httpClient),
		repo:  repo,
	}
}

// Start initializes the configured chain set — the five defaults, or
// cfg.CustomChains when non-empty — dials each, seeds its cursor at the
// chain head, and arms the three shared tickers at cfg.BlockTime. It
// returns once every chain has been dialed; tickers then run until Stop
// is called or ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.chains != nil {
		m.mu.Unlock()
		return fmt.Errorf("monitor already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	configs := m.chainConfigs()
	chains := make(map[string]*chain, len(configs))
	for _, cc := range configs {
		c, err := newChain(runCtx, cc.Name, cc.Endpoint, cc.ChainID)
		if err != nil {
			cancel()
			m.mu.Unlock()
			return fmt.Errorf("start chain %s: %w", cc.Name, err)
		}
		chains[cc.Name] = c
		log.Info("chain monitor started", "chain", cc.Name, "endpoint", cc.Endpoint, "cursor", c.cursor)
	}
	m.chains = chains
	m.mu.Unlock()

	for _, c := range chains {
		c := c
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			c.run(runCtx)
		}()
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.tick(runCtx)
	}()

	return nil
}

// Stop cancels all three tickers. In-flight network operations are not
// forcibly aborted; they run to completion or time out against the
// underlying HTTP/JSON-RPC client's own timeouts. A second Stop call is a
// no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	m.wg.Wait()
}

// chainConfigs resolves the set of chains to tail: cfg.CustomChains when
// set, otherwise the five defaults dialed against Infura.
func (m *Monitor) chainConfigs() []monitorconfig.ChainConfig {
	if len(m.cfg.CustomChains) > 0 {
		return m.cfg.CustomChains
	}
	out := make([]monitorconfig.ChainConfig, 0, len(monitorconfig.DefaultChainNames))
	for _, name := range monitorconfig.DefaultChainNames {
		chainID, _ := monitorconfig.DefaultChainID(name)
		out = append(out, monitorconfig.ChainConfig{
			Name:     name,
			Endpoint: m.cfg.Endpoint(name),
			ChainID:  chainID,
		})
	}
	return out
}

// tick fires the three shared tickers at cfg.BlockTime and fans each tick
// out across every chain.
func (m *Monitor) tick(ctx context.Context) {
	interval := m.cfg.BlockTime
	if interval <= 0 {
		interval = 15 * time.Second
	}
	blockTicker := time.NewTicker(interval)
	metadataTicker := time.NewTicker(interval)
	sourceTicker := time.NewTicker(interval)
	defer blockTicker.Stop()
	defer metadataTicker.Stop()
	defer sourceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-blockTicker.C:
			m.dispatch(tickBlock, m.runBlockTick)
		case <-metadataTicker.C:
			m.dispatch(tickMetadata, m.runMetadataTick)
		case <-sourceTicker.C:
			m.dispatch(tickSource, m.runSourceTick)
		}
	}
}

// dispatch schedules job on every chain's actor for the given tick kind.
func (m *Monitor) dispatch(kind tickKind, job func(context.Context, *chain)) {
	m.mu.Lock()
	chains := make([]*chain, 0, len(m.chains))
	for _, c := range m.chains {
		chains = append(chains, c)
	}
	m.mu.Unlock()

	for _, c := range chains {
		c := c
		c.schedule(kind, func(ctx context.Context) { job(ctx, c) })
	}
}
