package monitor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"

	"github.com/sourcify-eth/chain-monitor/repository"
)

// runMetadataTick implements SPEC_FULL.md's metadatafetcher module: evict
// stale entries, then for each survivor fetch the referenced metadata
// document from Swarm or IPFS, persist it, and promote the contract to
// the source queue once its "sources" manifest has been parsed.
func (m *Monitor) runMetadataTick(ctx context.Context, c *chain) {
	for _, addr := range c.metadataQueue.evict(metadataMaxAge) {
		log.Info("metadata entry aged out, dropping",
			"component", componentMetadata, "chain", c.name, "address", addr)
	}

	entries := c.metadataQueue.snapshot()
	if len(entries) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(perStageConcurrency)
	for addr, entry := range entries {
		addr, entry := addr, entry
		g.Go(func() error {
			m.fetchMetadataFor(gctx, c, addr, entry)
			return nil
		})
	}
	_ = g.Wait()
}

// fetchMetadataFor fetches and persists one contract's metadata document,
// and promotes it to the source queue on success.
func (m *Monitor) fetchMetadataFor(ctx context.Context, c *chain, addr string, entry metadataEntry) {
	var (
		raw []byte
		err error
	)
	switch entry.variant {
	case VariantSwarm:
		raw, err = m.swarm.fetchHash(ctx, entry.hash)
		if err == nil {
			err = m.repo.WriteFile(repository.Paths.SwarmBzzr1(entry.hash), raw)
		}
	case VariantIPFS:
		raw, err = m.ipfs.fetchCID(ctx, entry.hash)
		if err == nil {
			err = m.repo.WriteFile(repository.Paths.IPFS(entry.hash), raw)
		}
	default:
		err = fmt.Errorf("unknown metadata variant %v", entry.variant)
	}
	if err != nil {
		log.Warn("failed to fetch metadata document, will retry",
			"component", componentMetadata, "chain", c.name, "address", addr, "err", err)
		return
	}

	if err := m.repo.WriteFile(repository.Paths.Metadata(c.name, addr), raw); err != nil {
		log.Warn("failed to persist metadata document copy",
			"component", componentMetadata, "chain", c.name, "address", addr, "err", err)
	}

	var doc metadataDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		// The raw bytes are already on disk; the metadata-queue entry is
		// removed regardless, so this address will not be retried (see
		// DESIGN.md's resolution of SPEC_FULL.md's open question on
		// parse-failure retry).
		c.metadataQueue.delete(addr)
		log.Warn("metadata document is not valid JSON, dropping without retry",
			"component", componentMetadata, "chain", c.name, "address", addr, "err", err)
		return
	}

	pending := make(map[string]sourceDescriptor, len(doc.Sources))
	for key, desc := range doc.Sources {
		pending[key] = desc
	}

	c.metadataQueue.delete(addr)
	c.sourceQueue.add(addr, sourceEntry{rawMetadata: raw, pending: pending})
	log.Info("metadata document fetched, promoted to source queue",
		"component", componentMetadata, "chain", c.name, "address", addr, "sources", len(pending))
}
