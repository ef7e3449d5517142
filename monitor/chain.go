package monitor

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// Component tags used in structured log lines, per SPEC_FULL.md's logging
// section: "[BLOCKS]", "[METADATA]", "[SOURCE]".
const (
	componentBlocks   = "BLOCKS"
	componentMetadata = "METADATA"
	componentSource   = "SOURCE"
)

// Retention windows from SPEC_FULL.md §3.
const (
	metadataMaxAge = 3600 * time.Second
	sourceMaxAge   = 432000 * time.Second

	// catchUpCap bounds how many blocks one chain ingests per block tick.
	catchUpCap = 4

	// perStageConcurrency bounds simultaneous in-flight fetches for one
	// stage on one chain, per SPEC_FULL.md's concurrency model.
	perStageConcurrency = 16
)

// chain is one blockchain's mutable state: its RPC client, its cursor, and
// its two queues. Ticks for a chain are serialized onto the chain's own
// actor goroutine (run), which is the monitor's resolution of the shared
// -resource policy in SPEC_FULL.md §monitor: the cursor is touched only
// there, while the two queues are also used by the fetch workers a tick
// fans out and waits for, and guard themselves with their own mutex.
type chain struct {
	name     string
	endpoint string
	chainID  uint64
	client   ChainBackend

	cursor uint64

	metadataQueue *queue[metadataEntry]
	sourceQueue   *queue[sourceEntry]

	work chan func(context.Context)
}

// tickKind identifies which of the three global tickers fired.
type tickKind int

const (
	tickBlock tickKind = iota
	tickMetadata
	tickSource
)

func (k tickKind) String() string {
	switch k {
	case tickBlock:
		return "block"
	case tickMetadata:
		return "metadata"
	case tickSource:
		return "source"
	default:
		return "unknown"
	}
}

// component returns the structured-log component tag for the tick kind.
func (k tickKind) component() string {
	switch k {
	case tickBlock:
		return componentBlocks
	case tickMetadata:
		return componentMetadata
	case tickSource:
		return componentSource
	default:
		return "UNKNOWN"
	}
}

// newChain dials the chain's RPC endpoint and seeds the cursor at the
// current head, per SPEC_FULL.md's Start contract.
func newChain(ctx context.Context, name, endpoint string, chainID uint64) (*chain, error) {
	client, err := dialChainBackend(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	head, err := client.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}
	return &chain{
		name:          name,
		endpoint:      endpoint,
		chainID:       chainID,
		client:        client,
		cursor:        head,
		metadataQueue: newQueue[metadataEntry](),
		sourceQueue:   newQueue[sourceEntry](),
		work:          make(chan func(context.Context), 32),
	}, nil
}

// run processes this chain's work queue until ctx is cancelled. Each
// enqueued job runs to completion before the next is started, which is
// what keeps cursor/metadataQueue/sourceQueue single-owner.
func (c *chain) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-c.work:
			job(ctx)
		}
	}
}

// schedule enqueues a tick's work for this chain. If the chain's actor is
// still busy with a previous tick and its queue is full, the tick is
// dropped and logged rather than blocking the caller — ticks never pile
// up without bound.
func (c *chain) schedule(kind tickKind, job func(context.Context)) {
	select {
	case c.work <- job:
	default:
		log.Warn("tick dropped, chain actor is backlogged",
			"component", kind.component(), "chain", c.name)
	}
}

func bigFromUint64(n uint64) *big.Int {
	return new(big.Int).SetUint64(n)
}
