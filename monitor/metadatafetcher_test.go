package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestMonitor(swarmURL, ipfsCatURL string, repo Writer) *Monitor {
	client := &http.Client{Timeout: 5 * time.Second}
	return &Monitor{
		swarm: newSwarmGateway(swarmURL, client),
		ipfs:  newIPFSGateway(nil, ipfsCatURL, client),
		repo:  repo,
	}
}

func TestRunMetadataTickSwarmSuccess(t *testing.T) {
	const hexHash = "1111111111111111111111111111111111111111111111111111111111111111"
	metadataJSON := `{"sources":{"contracts/A.sol":{"keccak256":"0xaa","urls":["bzz-raw:/22"]}}}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bzz-raw:/"+hexHash, r.URL.Path)
		w.Write([]byte(metadataJSON))
	}))
	defer server.Close()

	repo := newMemWriter()
	m := newTestMonitor(server.URL, "", repo)
	c := &chain{
		name:          "mainnet",
		metadataQueue: newQueue[metadataEntry](),
		sourceQueue:   newQueue[sourceEntry](),
	}
	c.metadataQueue.add("ab", metadataEntry{variant: VariantSwarm, hash: hexHash})

	m.runMetadataTick(context.Background(), c)

	require.Equal(t, 0, c.metadataQueue.len())
	raw, err := repo.ReadFile("swarm/bzzr1/" + hexHash)
	require.NoError(t, err)
	require.Equal(t, metadataJSON, string(raw))

	raw, err = repo.ReadFile("contract/mainnet/ab/metadata.json")
	require.NoError(t, err)
	require.Equal(t, metadataJSON, string(raw))

	entry, ok := c.sourceQueue.get("ab")
	require.True(t, ok)
	require.Len(t, entry.pending, 1)
	desc, ok := entry.pending["contracts/A.sol"]
	require.True(t, ok)
	require.Equal(t, "0xaa", desc.Keccak256)
}

func TestRunMetadataTickIPFSSuccess(t *testing.T) {
	const cid = "QmTestCID"
	metadataJSON := `{"sources":{}}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/"+cid, r.URL.Path)
		w.Write([]byte(metadataJSON))
	}))
	defer server.Close()

	repo := newMemWriter()
	m := newTestMonitor("", server.URL+"/", repo)
	c := &chain{
		name:          "mainnet",
		metadataQueue: newQueue[metadataEntry](),
		sourceQueue:   newQueue[sourceEntry](),
	}
	c.metadataQueue.add("cd", metadataEntry{variant: VariantIPFS, hash: cid})

	m.runMetadataTick(context.Background(), c)

	raw, err := repo.ReadFile("ipfs/" + cid)
	require.NoError(t, err)
	require.Equal(t, metadataJSON, string(raw))
}

func TestRunMetadataTickTransportFailureLeavesQueued(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	repo := newMemWriter()
	m := newTestMonitor(server.URL, "", repo)
	c := &chain{
		name:          "mainnet",
		metadataQueue: newQueue[metadataEntry](),
		sourceQueue:   newQueue[sourceEntry](),
	}
	c.metadataQueue.add("ab", metadataEntry{variant: VariantSwarm, hash: "11"})

	m.runMetadataTick(context.Background(), c)

	require.Equal(t, 1, c.metadataQueue.len())
	require.Equal(t, 0, c.sourceQueue.len())
}

func TestRunMetadataTickMalformedJSONDropsWithoutRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	repo := newMemWriter()
	m := newTestMonitor(server.URL, "", repo)
	c := &chain{
		name:          "mainnet",
		metadataQueue: newQueue[metadataEntry](),
		sourceQueue:   newQueue[sourceEntry](),
	}
	c.metadataQueue.add("ab", metadataEntry{variant: VariantSwarm, hash: "11"})

	m.runMetadataTick(context.Background(), c)

	// Dropped from the metadata queue (not retried) but the file is
	// already on disk, per SPEC_FULL.md's parse-error policy.
	require.Equal(t, 0, c.metadataQueue.len())
	require.Equal(t, 0, c.sourceQueue.len())
	require.True(t, repo.HasFile("swarm/bzzr1/11"))
}

func TestRunMetadataTickEvictsStaleEntries(t *testing.T) {
	repo := newMemWriter()
	m := newTestMonitor("http://unused.invalid", "", repo)
	c := &chain{
		name:          "mainnet",
		metadataQueue: newQueue[metadataEntry](),
		sourceQueue:   newQueue[sourceEntry](),
	}
	stale := time.Now().Add(-(metadataMaxAge + time.Second)).UnixMilli()
	c.metadataQueue.addAt("ab", metadataEntry{variant: VariantSwarm, hash: "11"}, stale)

	m.runMetadataTick(context.Background(), c)

	require.Equal(t, 0, c.metadataQueue.len())
}

