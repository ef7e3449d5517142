package monitor

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
)

// runBlockTick implements SPEC_FULL.md's blockdetector module: clamp the
// ingestion target to the catch-up cap, walk every block in
// [cursor, target), detect contract-creation transactions, decode their
// deployed bytecode's metadata footer, and enqueue a metadata-queue entry
// for every one that carries a recognized footer. The cursor always
// advances to target, even when individual block fetches fail, because a
// block once read is authoritative and re-fetching it buys nothing the
// monitor can act on differently.
func (m *Monitor) runBlockTick(ctx context.Context, c *chain) {
	head, err := c.client.BlockNumber(ctx)
	if err != nil {
		log.Warn("failed to read chain head, skipping block tick",
			"component", componentBlocks, "chain", c.name, "err", err)
		return
	}

	target := head
	if target > c.cursor+catchUpCap {
		target = c.cursor + catchUpCap
	}
	if target <= c.cursor {
		return
	}

	for n := c.cursor; n < target; n++ {
		block, err := c.client.BlockByNumber(ctx, new(big.Int).SetUint64(n))
		if err != nil {
			log.Warn("failed to fetch block, skipping",
				"component", componentBlocks, "chain", c.name, "number", n, "err", err)
			continue
		}
		m.extractCreations(ctx, c, block)
	}

	c.cursor = target
}

// extractCreations scans one block's transactions for contract creations
// (transactions with a nil "to") and, for each, derives the deployed
// address and attempts to decode its bytecode footer.
func (m *Monitor) extractCreations(ctx context.Context, c *chain, block *types.Block) {
	signer := types.LatestSignerForChainID(new(big.Int).SetUint64(c.chainID))
	for _, tx := range block.Transactions() {
		if tx.To() != nil {
			continue
		}
		sender, err := types.Sender(signer, tx)
		if err != nil {
			log.Warn("failed to recover sender for contract-creation tx, skipping",
				"component", componentBlocks, "chain", c.name, "tx", tx.Hash(), "err", err)
			continue
		}
		addr := crypto.CreateAddress(sender, tx.Nonce())
		m.extractFooterFor(ctx, c, addr)
	}
}

// extractFooterFor fetches a newly deployed contract's runtime bytecode
// and, on a recognizable metadata footer, enqueues it for metadata
// fetching. Decode failures and code-fetch failures both silently drop
// the contract, per SPEC_FULL.md's error policy for decode errors.
func (m *Monitor) extractFooterFor(ctx context.Context, c *chain, addr common.Address) {
	code, err := c.client.CodeAt(ctx, addr, nil)
	if err != nil {
		log.Debug("failed to fetch deployed bytecode, dropping candidate",
			"component", componentBlocks, "chain", c.name, "address", addr, "err", err)
		return
	}
	entry, err := decodeFooter(code)
	if err != nil {
		log.Debug("no recognizable metadata footer, dropping candidate",
			"component", componentBlocks, "chain", c.name, "address", addr, "err", err)
		return
	}
	if c.metadataQueue.add(addressKey(addr), entry) {
		log.Info("new contract-creation candidate queued for metadata fetch",
			"component", componentBlocks, "chain", c.name, "address", addr,
			"variant", entry.variant, "hash", entry.hash)
	}
}

// addressKey is the hex string (without 0x) a contract address is keyed
// by across both queues.
func addressKey(addr common.Address) string {
	return fmt.Sprintf("%x", addr)
}
