// Package archive stores exported report bytes content-addressed by their
// SHA-256 digest. Exports are immutable, so a digest fully identifies one
// export and writes are idempotent.
package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store is the persistence contract for exported reports.
type Store interface {
	// Put persists export bytes and returns their digest.
	Put(ctx context.Context, data []byte) (string, error)
	// Get retrieves export bytes by digest.
	Get(ctx context.Context, digest string) ([]byte, error)
	// Exists reports whether a digest is already archived.
	Exists(ctx context.Context, digest string) (bool, error)
}

// Digest computes the content address of export bytes.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// rawHex validates a digest and strips the algorithm prefix.
func rawHex(digest string) (string, error) {
	raw, ok := strings.CutPrefix(digest, "sha256:")
	if !ok {
		return "", fmt.Errorf("invalid digest format: %s", digest)
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", fmt.Errorf("invalid digest hex: %w", err)
	}
	return raw, nil
}

// FileStore is the filesystem-backed Store.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileStore creates an archive rooted at baseDir.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure archive dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) Put(ctx context.Context, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	digest := Digest(data)
	raw, _ := rawHex(digest)
	path := filepath.Join(s.baseDir, raw+".txt")

	if _, err := os.Stat(path); err == nil {
		return digest, nil // already archived
	}

	// Write to temp, then rename, so readers never see a partial export.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("commit export: %w", err)
	}
	return digest, nil
}

func (s *FileStore) Get(ctx context.Context, digest string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := rawHex(digest)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, raw+".txt"))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("export not archived: %s", digest)
	}
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return data, nil
}

func (s *FileStore) Exists(ctx context.Context, digest string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := rawHex(digest)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(filepath.Join(s.baseDir, raw+".txt"))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat export: %w", err)
}
