package driving

import (
	"context"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
)

// Indexer drives the reconcile-and-embed pipeline.
type Indexer interface {
	// ReconcileAll diffs the content source against the index and
	// re-chunks and re-embeds every outdated document.
	ReconcileAll(ctx context.Context) error

	// ReconcilePaths reconciles only the given paths, skipping any
	// that are no longer outdated.
	ReconcilePaths(ctx context.Context, paths []string) error

	// Remove deletes a document and its chunks from the index.
	// A safe no-op for unknown paths.
	Remove(ctx context.Context, path string) error

	// Rebuild clears the index and reconciles everything from scratch.
	Rebuild(ctx context.Context) error

	// Running reports whether a reconciliation batch is in flight.
	Running() bool

	// Progress returns the bounded progress event stream.
	Progress() <-chan domain.ProgressEvent
}

// ChangeScheduler coalesces change notifications into reconciliation
// batches after a quiescence window.
type ChangeScheduler interface {
	// Handle processes one change event. Creates and modifications are
	// debounced; deletions are applied immediately.
	Handle(event domain.ChangeEvent)

	// Stop clears pending timers and waits for an in-flight batch.
	Stop()
}
