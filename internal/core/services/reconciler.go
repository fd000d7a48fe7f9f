package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/arkivo-labs/arkivo-cli/internal/chunker"
	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
	"github.com/arkivo-labs/arkivo-cli/internal/core/ports/driven"
	"github.com/arkivo-labs/arkivo-cli/internal/core/ports/driving"
	"github.com/arkivo-labs/arkivo-cli/internal/logger"
)

// Ensure Reconciler implements the interface.
var _ driving.Indexer = (*Reconciler)(nil)

// DefaultEmbedRate caps embedding calls per second to respect provider
// rate limits. Documents are embedded one at a time, never in parallel,
// so failure attribution stays per-document.
const DefaultEmbedRate = rate.Limit(5)

// progressBuffer bounds the progress channel. The reconciler never
// blocks on a slow or absent consumer; overflow events are dropped.
const progressBuffer = 64

// Reconciler drives the reconcile-and-embed pipeline: for each outdated
// document it reads content, chunks it, replaces its chunks in the index
// store, then embeds each chunk and attaches the result. Per-document
// failures are logged and contained; a batch is best-effort, not a
// transaction across documents.
type Reconciler struct {
	store    *IndexStore
	source   driven.ContentSource
	embedder driven.EmbeddingService
	chunker  *chunker.Chunker
	limiter  *rate.Limiter
	progress chan domain.ProgressEvent

	mu      sync.Mutex
	running bool
}

// NewReconciler creates a reconciler.
func NewReconciler(
	store *IndexStore,
	source driven.ContentSource,
	embedder driven.EmbeddingService,
	ck *chunker.Chunker,
	embedRate rate.Limit,
) *Reconciler {
	if embedRate <= 0 {
		embedRate = DefaultEmbedRate
	}
	return &Reconciler{
		store:    store,
		source:   source,
		embedder: embedder,
		chunker:  ck,
		limiter:  rate.NewLimiter(embedRate, 1),
		progress: make(chan domain.ProgressEvent, progressBuffer),
	}
}

// Progress returns the bounded progress event stream.
func (r *Reconciler) Progress() <-chan domain.ProgressEvent {
	return r.progress
}

// Running reports whether a reconciliation batch is in flight.
func (r *Reconciler) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// ReconcileAll reconciles every outdated document in the vault.
func (r *Reconciler) ReconcileAll(ctx context.Context) error {
	refs, err := r.store.OutdatedDocuments(ctx)
	if err != nil {
		return err
	}
	return r.process(ctx, refs)
}

// ReconcilePaths reconciles the given paths, skipping any that are no
// longer outdated. A path edited and then reverted within the debounce
// window costs only a fingerprint comparison here.
func (r *Reconciler) ReconcilePaths(ctx context.Context, paths []string) error {
	outdated, err := r.store.OutdatedDocuments(ctx)
	if err != nil {
		return err
	}

	wanted := make(map[string]bool, len(paths))
	for _, path := range paths {
		wanted[path] = true
	}

	var refs []domain.DocumentRef
	for _, ref := range outdated {
		if wanted[ref.Path] {
			refs = append(refs, ref)
		}
	}
	return r.process(ctx, refs)
}

// Remove deletes a document and its chunks from the index. Deletion
// needs no network round-trip, so it bypasses batching entirely.
func (r *Reconciler) Remove(ctx context.Context, path string) error {
	logger.Debug("Removing from index: %s", path)
	return r.store.RemoveDocument(ctx, path)
}

// Rebuild clears the index and reconciles everything from scratch.
func (r *Reconciler) Rebuild(ctx context.Context) error {
	if err := r.store.Rebuild(ctx); err != nil {
		return err
	}
	return r.ReconcileAll(ctx)
}

// process runs one reconciliation batch. At most one batch is in flight
// system-wide; concurrent callers get ErrReconcileInProgress and their
// paths are merged into the next batch by the change scheduler.
func (r *Reconciler) process(ctx context.Context, refs []domain.DocumentRef) error {
	if r.embedder == nil {
		return fmt.Errorf("%w: embedding provider required for indexing", domain.ErrProviderNotConfigured)
	}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return domain.ErrReconcileInProgress
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	batchID := uuid.NewString()
	total := len(refs)
	logger.Section("Reconciliation")
	logger.Info("Batch %s: %d documents", batchID, total)

	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.processDocument(ctx, batchID, ref, i, total); err != nil {
			// Contained: the remaining documents still get their turn.
			logger.Warn("Failed to process %s: %v", ref.Path, err)
		}
	}

	r.emit(domain.ProgressEvent{
		BatchID: batchID,
		Phase:   domain.PhaseComplete,
		Current: total,
		Total:   total,
	})
	logger.Info("Batch %s complete", batchID)
	return nil
}

// processDocument runs the read, chunk, replace, embed pipeline for one
// document. An embedding failure aborts only this document's remaining
// work; the document stays indexed with partial or no embeddings and is
// retried on the next pass.
func (r *Reconciler) processDocument(
	ctx context.Context,
	batchID string,
	ref domain.DocumentRef,
	position, total int,
) error {
	logger.Debug("Processing: %s", ref.Path)

	content, err := r.source.Read(ctx, ref)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	chunks := r.chunker.Chunk(content, ref.Path)
	if err := r.store.AddDocument(ctx, ref, chunks); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}

	r.emit(domain.ProgressEvent{
		BatchID:  batchID,
		Phase:    domain.PhaseChunking,
		Current:  position,
		Total:    total,
		Document: ref.Path,
	})

	for _, chunk := range chunks {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		vector, err := r.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			return fmt.Errorf("%w: embed chunk %s: %w", domain.ErrProvider, chunk.ID, err)
		}
		if err := r.store.UpdateChunkEmbedding(ctx, chunk.ID, vector); err != nil {
			return fmt.Errorf("attach embedding %s: %w", chunk.ID, err)
		}
	}

	r.emit(domain.ProgressEvent{
		BatchID:  batchID,
		Phase:    domain.PhaseEmbedding,
		Current:  position + 1,
		Total:    total,
		Document: ref.Path,
	})
	return nil
}

// emit sends a progress event without blocking, dropping it when no
// consumer keeps up. Progress is advisory, never load-bearing.
func (r *Reconciler) emit(event domain.ProgressEvent) {
	select {
	case r.progress <- event:
	default:
	}
}
