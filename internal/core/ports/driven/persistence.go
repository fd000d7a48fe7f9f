package driven

import (
	"context"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
)

// IndexPersistence loads and saves the vault index. The index is a
// derived cache, so implementations favour fail-open behaviour: the
// store treats any load failure as an empty index.
type IndexPersistence interface {
	// Load reads the persisted index. Returns domain.ErrNotFound when
	// no index has been persisted yet, and an error wrapping
	// domain.ErrIndexCorrupt when the state cannot be parsed.
	Load(ctx context.Context) (*domain.VaultIndex, error)

	// Save persists the full index atomically enough that a crash
	// mid-write does not corrupt the previous good copy.
	Save(ctx context.Context, index *domain.VaultIndex) error

	// Path returns the persistence location for display.
	Path() string

	// Close releases resources.
	Close() error
}
