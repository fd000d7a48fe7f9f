package driven

import (
	"context"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
)

// ContentSource enumerates and reads the documents of a vault and emits
// change notifications. The filesystem connector is the only production
// implementation; tests provide in-memory fakes.
type ContentSource interface {
	// List enumerates all documents currently in the source.
	// Enumeration order is the processing order within a batch.
	List(ctx context.Context) ([]domain.DocumentRef, error)

	// Read returns the full text content of a document.
	Read(ctx context.Context, ref domain.DocumentRef) (string, error)

	// Stat returns the document's modification time and size.
	Stat(ctx context.Context, ref domain.DocumentRef) (domain.FileStat, error)

	// Watch emits change events until ctx is cancelled. The returned
	// channel is closed when watching stops.
	Watch(ctx context.Context) (<-chan domain.ChangeEvent, error)

	// Close releases resources.
	Close() error
}
