package repository

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFileCreatesParentDirs(t *testing.T) {
	repo := New(t.TempDir())

	require.NoError(t, repo.WriteFile("contract/mainnet/ab/metadata.json", []byte(`{"a":1}`)))

	raw, err := repo.ReadFile("contract/mainnet/ab/metadata.json")
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, string(raw))
}

func TestWriteFileOverwritesExistingContent(t *testing.T) {
	repo := New(t.TempDir())

	require.NoError(t, repo.WriteFile("swarm/bzzr1/11", []byte("first")))
	require.NoError(t, repo.WriteFile("swarm/bzzr1/11", []byte("second, and longer")))

	raw, err := repo.ReadFile("swarm/bzzr1/11")
	require.NoError(t, err)
	require.Equal(t, "second, and longer", string(raw))
}

func TestWriteFileLeavesNoTempFilesBehind(t *testing.T) {
	root := t.TempDir()
	repo := New(root)

	require.NoError(t, repo.WriteFile("ipfs/QmTest", []byte("content")))

	entries, err := filepath.Glob(filepath.Join(root, "ipfs", ".*"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestHasFileReflectsExistence(t *testing.T) {
	repo := New(t.TempDir())

	require.False(t, repo.HasFile("keccak256/aa"))
	require.NoError(t, repo.WriteFile("keccak256/aa", []byte("x")))
	require.True(t, repo.HasFile("keccak256/aa"))
}

func TestReadFileMissingReturnsError(t *testing.T) {
	repo := New(t.TempDir())

	_, err := repo.ReadFile("contract/mainnet/ab/metadata.json")
	require.Error(t, err)
}

func TestPathsLayout(t *testing.T) {
	require.Equal(t, "swarm/bzzr1/deadbeef", Paths.SwarmBzzr1("deadbeef"))
	require.Equal(t, "ipfs/QmTest", Paths.IPFS("QmTest"))
	require.Equal(t, "contract/mainnet/0xabc/metadata.json", Paths.Metadata("mainnet", "0xabc"))
	require.Equal(t, "contract/mainnet/0xabc/sources/contracts/A.sol", Paths.Source("mainnet", "0xabc", "contracts/A.sol"))
	require.Equal(t, "keccak256/deadbeef", Paths.Keccak256("deadbeef"))
}
