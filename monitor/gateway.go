package monitor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// IPFSProvider is an in-process IPFS client, set via
// monitorconfig.Config.IpfsProvider. When configured, it is preferred over
// the HTTP cat-endpoint fallback described in SPEC_FULL.md §6.2.
type IPFSProvider interface {
	Cat(ctx context.Context, path string) ([]byte, error)
}

// httpGetter is the minimal surface the monitor needs from an HTTP client;
// satisfied by *http.Client, and by a fake in tests.
type httpGetter interface {
	Do(req *http.Request) (*http.Response, error)
}

// swarmGateway fetches raw content from a Swarm HTTP gateway.
type swarmGateway struct {
	base   string
	client httpGetter
}

func newSwarmGateway(base string, client httpGetter) *swarmGateway {
	return &swarmGateway{base: strings.TrimRight(base, "/") + "/", client: client}
}

// fetchHash fetches the raw bytes for a bzzr1 content hash via
// "<gateway>/bzz-raw:/<hash>".
func (g *swarmGateway) fetchHash(ctx context.Context, hexHash string) ([]byte, error) {
	return g.fetchPath(ctx, fmt.Sprintf("bzz-raw:/%s", hexHash))
}

// fetchPath fetches the raw bytes for a gateway-relative path taken
// verbatim from a metadata manifest's source URL list (e.g. "bzz-raw:/...").
func (g *swarmGateway) fetchPath(ctx context.Context, path string) ([]byte, error) {
	return httpGet(ctx, g.client, g.base+strings.TrimLeft(path, "/"))
}

// ipfsGateway fetches content either via an in-process IPFSProvider, or via
// an HTTP cat endpoint when no provider is configured.
type ipfsGateway struct {
	provider    IPFSProvider
	catEndpoint string
	client      httpGetter
}

func newIPFSGateway(provider IPFSProvider, catEndpoint string, client httpGetter) *ipfsGateway {
	return &ipfsGateway{provider: provider, catEndpoint: catEndpoint, client: client}
}

// fetchCID fetches the raw bytes referenced by an IPFS CID.
func (g *ipfsGateway) fetchCID(ctx context.Context, cid string) ([]byte, error) {
	if g.provider != nil {
		return g.provider.Cat(ctx, cid)
	}
	return httpGet(ctx, g.client, g.catEndpoint+cid)
}

func httpGet(ctx context.Context, client httpGetter, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body from %s: %w", url, err)
	}
	return body, nil
}
