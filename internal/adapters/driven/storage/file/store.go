// Package file persists the vault index as a single JSON document,
// written atomically via a temp file and rename.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
	"github.com/arkivo-labs/arkivo-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IndexPersistence = (*Store)(nil)

// Store persists the index at a fixed file path.
type Store struct {
	path string
}

// New creates a file-backed index store. The parent directory is
// created on first save, not here.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads and parses the persisted index.
func (s *Store) Load(ctx context.Context) (*domain.VaultIndex, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read index file: %w", err)
	}

	var index domain.VaultIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("%w: parse index file: %w", domain.ErrIndexCorrupt, err)
	}
	return &index, nil
}

// Save writes the index to a temp file in the same directory and
// renames it over the target, so a crash mid-write leaves the previous
// copy intact.
func (s *Store) Save(ctx context.Context, index *domain.VaultIndex) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write index file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace index file: %w", err)
	}
	return nil
}

// Path returns the index file location.
func (s *Store) Path() string {
	return s.path
}

// Close is a no-op for file storage.
func (s *Store) Close() error {
	return nil
}
