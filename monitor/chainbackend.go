package monitor

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ChainBackend is the HTTP/JSON-RPC blockchain client surface the monitor
// needs: eth_blockNumber, eth_getBlockByNumber (with full transactions) and
// eth_getCode. It is listed as an out-of-scope external collaborator in
// SPEC_FULL.md — the monitor depends only on this interface, never on a
// concrete client's internals. *ethclient.Client satisfies it directly.
type ChainBackend interface {
	BlockNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

var _ ChainBackend = (*ethclient.Client)(nil)

// dialChainBackend dials the JSON-RPC endpoint for a chain, returning the
// real go-ethereum client used in production. Tests substitute a fake
// ChainBackend instead of calling this.
func dialChainBackend(ctx context.Context, endpoint string) (ChainBackend, error) {
	return ethclient.DialContext(ctx, endpoint)
}
