// Package repository writes harvested verification artifacts to a
// content-addressed local filesystem layout. It is the monitor's one
// concrete implementation of monitor.Writer; see SPEC_FULL.md §repository.
package repository

import (
	"fmt"
	"os"
	"path/filepath"
)

// FS is a filesystem-backed repository rooted at a single directory. All
// paths handed to its methods are relative to Root.
type FS struct {
	Root string
}

// New returns an FS repository rooted at root. The root directory is not
// created until the first write.
func New(root string) *FS {
	return &FS{Root: root}
}

// WriteFile stores data at relPath, relative to the repository root,
// creating parent directories as needed. The write is atomic: data is
// written to a temporary file in the same directory and renamed into
// place, so a reader never observes a partially written file, and an
// existing file at relPath is replaced outright.
func (f *FS) WriteFile(relPath string, data []byte) error {
	full := filepath.Join(f.Root, filepath.FromSlash(relPath))
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(full)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write temp file %s: %w", tmpName, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file %s: %w", tmpName, closeErr)
	}
	if err := os.Rename(tmpName, full); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s to %s: %w", tmpName, full, err)
	}
	return nil
}

// HasFile reports whether relPath already exists under the repository
// root, without reading its content.
func (f *FS) HasFile(relPath string) bool {
	full := filepath.Join(f.Root, filepath.FromSlash(relPath))
	_, err := os.Stat(full)
	return err == nil
}

// ReadFile reads the content previously stored at relPath.
func (f *FS) ReadFile(relPath string) ([]byte, error) {
	full := filepath.Join(f.Root, filepath.FromSlash(relPath))
	return os.ReadFile(full)
}

// Paths mirrors the repository layout from SPEC_FULL.md §repository.
var Paths = struct {
	SwarmBzzr1 func(hexHash string) string
	IPFS       func(cid string) string
	Metadata   func(chain, address string) string
	Source     func(chain, address, sanitizedKey string) string
	Keccak256  func(hexDigest string) string
}{
	SwarmBzzr1: func(hexHash string) string { return filepath.ToSlash(filepath.Join("swarm", "bzzr1", hexHash)) },
	IPFS:       func(cid string) string { return filepath.ToSlash(filepath.Join("ipfs", cid)) },
	Metadata: func(chain, address string) string {
		return filepath.ToSlash(filepath.Join("contract", chain, address, "metadata.json"))
	},
	Source: func(chain, address, sanitizedKey string) string {
		return filepath.ToSlash(filepath.Join("contract", chain, address, "sources", sanitizedKey))
	},
	Keccak256: func(hexDigest string) string { return filepath.ToSlash(filepath.Join("keccak256", hexDigest)) },
}
