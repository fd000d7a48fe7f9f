package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
	"github.com/arkivo-labs/arkivo-cli/internal/core/ports/driven"
	"github.com/arkivo-labs/arkivo-cli/internal/logger"
)

// IndexStore owns the in-memory vault index and its persistence. It is
// the single authority on what is indexed: fingerprints, chunks and
// stats. Every mutating call ends by persisting the full index; there is
// no separate flush step. A read/write lock allows many concurrent
// searches alongside exclusive writers.
type IndexStore struct {
	mu          sync.RWMutex
	persistence driven.IndexPersistence
	source      driven.ContentSource
	settings    domain.IndexSettings
	clock       domain.Clock
	index       *domain.VaultIndex
}

// NewIndexStore creates an index store. Call Load before use.
func NewIndexStore(
	persistence driven.IndexPersistence,
	source driven.ContentSource,
	settings domain.IndexSettings,
	clock domain.Clock,
) *IndexStore {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &IndexStore{
		persistence: persistence,
		source:      source,
		settings:    settings,
		clock:       clock,
	}
}

// Load reads persisted state. The index is a derived cache, so Load
// never fails: absent state initialises an empty index, unreadable
// state falls back to an empty index, and a format-version or
// embedding-model conflict triggers a full rebuild.
func (s *IndexStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.persistence.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Info("No index found, initialising empty index")
		s.index = domain.NewVaultIndex(s.settings, s.clock.Now())

	case err != nil:
		logger.Warn("Index unreadable, resetting: %v", err)
		s.index = domain.NewVaultIndex(s.settings, s.clock.Now())

	default:
		s.index = s.adoptLocked(loaded)
	}

	return s.saveLocked(ctx)
}

// adoptLocked validates a loaded index against the current settings and
// returns either the (repaired) loaded index or a fresh rebuilt one.
func (s *IndexStore) adoptLocked(loaded *domain.VaultIndex) *domain.VaultIndex {
	if loaded.Files == nil {
		loaded.Files = make(map[string]domain.FileVersion)
	}
	if loaded.Chunks == nil {
		loaded.Chunks = make(map[string]*domain.DocumentChunk)
	}

	if loaded.Version != domain.IndexFormatVersion {
		logger.Warn("Index format version %d unsupported, rebuilding", loaded.Version)
		return s.emptyRebuiltLocked()
	}

	loaded.RecomputeStats()

	// An empty configured model means no embedding provider is wired.
	// That is not a model change: stored embeddings survive, and the
	// stored model name is kept for when a provider returns.
	if s.settings.EmbeddingModel == "" {
		s.settings.EmbeddingModel = loaded.Settings.EmbeddingModel
	}

	// A model change only invalidates an index that actually holds
	// embeddings; an embedding-free index adopts the new model as-is.
	if loaded.Settings.EmbeddingModel != s.settings.EmbeddingModel && loaded.Stats.TotalEmbeddings > 0 {
		logger.Info("Embedding model changed from %q to %q, rebuilding",
			loaded.Settings.EmbeddingModel, s.settings.EmbeddingModel)
		return s.emptyRebuiltLocked()
	}

	loaded.Settings = s.settings
	if pruned := loaded.PruneOrphans(); pruned > 0 {
		logger.Warn("Pruned %d orphaned chunks", pruned)
	}
	loaded.RecomputeStats()
	return loaded
}

// emptyRebuiltLocked returns an empty index stamped as a full rebuild.
func (s *IndexStore) emptyRebuiltLocked() *domain.VaultIndex {
	now := s.clock.Now()
	index := domain.NewVaultIndex(s.settings, now)
	index.Stats.LastFullIndex = now
	return index
}

// saveLocked persists the index and stamps UpdatedAt.
func (s *IndexStore) saveLocked(ctx context.Context) error {
	s.index.UpdatedAt = s.clock.Now()
	if err := s.persistence.Save(ctx, s.index); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	return nil
}

// FileVersionOf computes a fresh fingerprint for a document by reading
// its current size, mtime and content hash from the content source.
func (s *IndexStore) FileVersionOf(ctx context.Context, ref domain.DocumentRef) (domain.FileVersion, error) {
	stat, err := s.source.Stat(ctx, ref)
	if err != nil {
		return domain.FileVersion{}, fmt.Errorf("stat %s: %w", ref.Path, err)
	}
	content, err := s.source.Read(ctx, ref)
	if err != nil {
		return domain.FileVersion{}, fmt.Errorf("read %s: %w", ref.Path, err)
	}
	return domain.FileVersion{
		Path:         ref.Path,
		ModifiedTime: stat.ModifiedTime,
		ByteSize:     stat.ByteSize,
		ContentHash:  domain.HashContent([]byte(content)),
	}, nil
}

// IsUpToDate returns true only if a fingerprint is stored for the
// document and it is field-wise equal to the freshly computed one.
func (s *IndexStore) IsUpToDate(ctx context.Context, ref domain.DocumentRef) bool {
	fresh, err := s.FileVersionOf(ctx, ref)
	if err != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.index.Files[ref.Path]
	return ok && stored.Equal(fresh)
}

// OutdatedDocuments returns every document from the content source that
// needs reindexing or re-embedding, in enumeration order. As a side
// effect it removes index entries for paths no longer present in the
// source, handling deletions that happened while not watching.
func (s *IndexStore) OutdatedDocuments(ctx context.Context) ([]domain.DocumentRef, error) {
	refs, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	current := make(map[string]bool, len(refs))
	for _, ref := range refs {
		current[ref.Path] = true
	}

	s.mu.Lock()
	removed := 0
	for path := range s.index.Files {
		if !current[path] {
			s.removeLocked(path)
			removed++
		}
	}
	if removed > 0 {
		logger.Info("Removed %d deleted documents from index", removed)
		s.index.RecomputeStats()
		if err := s.saveLocked(ctx); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	s.mu.Unlock()

	var outdated []domain.DocumentRef
	for _, ref := range refs {
		if !s.IsUpToDate(ctx, ref) || s.needsEmbedding(ref.Path) {
			outdated = append(outdated, ref)
		}
	}
	return outdated, nil
}

// needsEmbedding reports whether any chunk of the document is missing
// an embedding or carries one from a different model. Such documents
// are retried on the next pass even though their fingerprint matches.
func (s *IndexStore) needsEmbedding(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, chunk := range s.index.Chunks {
		if chunk.FileVersion.Path != path {
			continue
		}
		if !chunk.HasEmbedding() || chunk.EmbeddingModel != s.settings.EmbeddingModel {
			return true
		}
	}
	return false
}

// RemoveDocument deletes the file entry and every chunk owned by the
// path, then persists. A safe no-op for unknown paths.
func (s *IndexStore) RemoveDocument(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(path)
	s.index.RecomputeStats()
	return s.saveLocked(ctx)
}

// removeLocked deletes a document's entry and chunks without persisting.
func (s *IndexStore) removeLocked(path string) {
	delete(s.index.Files, path)
	for id, chunk := range s.index.Chunks {
		if chunk.FileVersion.Path == path {
			delete(s.index.Chunks, id)
		}
	}
}

// AddDocument replaces the document's chunks as a whole: it computes a
// fresh fingerprint, removes any previous entry and chunks, stamps the
// incoming chunks with the fingerprint and timestamps, inserts them and
// persists. Partial chunk updates are never performed.
func (s *IndexStore) AddDocument(ctx context.Context, ref domain.DocumentRef, chunks []domain.DocumentChunk) error {
	version, err := s.FileVersionOf(ctx, ref)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(ref.Path)
	s.index.Files[ref.Path] = version

	now := s.clock.Now()
	for i := range chunks {
		chunk := chunks[i]
		chunk.FileVersion = version
		if chunk.CreatedAt.IsZero() {
			chunk.CreatedAt = now
		}
		chunk.UpdatedAt = now
		s.index.Chunks[chunk.ID] = &chunk
	}

	s.index.RecomputeStats()
	return s.saveLocked(ctx)
}

// UpdateChunkEmbedding attaches an embedding and the active model name
// to a chunk. A silent no-op when the chunk id is unknown: the chunk may
// have been removed between scheduling and completion of the embedding
// call.
func (s *IndexStore) UpdateChunkEmbedding(ctx context.Context, id string, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunk, ok := s.index.Chunks[id]
	if !ok {
		return nil
	}

	chunk.Embedding = vector
	chunk.EmbeddingModel = s.settings.EmbeddingModel
	chunk.UpdatedAt = s.clock.Now()

	s.index.RecomputeStats()
	return s.saveLocked(ctx)
}

// Rebuild replaces the whole index with an empty one, stamping the
// last-full-index time.
func (s *IndexStore) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = s.emptyRebuiltLocked()
	return s.saveLocked(ctx)
}

// EmbeddedChunks returns copies of every chunk carrying an embedding
// produced by the currently configured model, in document order so
// ranking ties break deterministically. Chunks embedded by another
// model are stale and excluded.
func (s *IndexStore) EmbeddedChunks() []domain.DocumentChunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := make([]domain.DocumentChunk, 0, len(s.index.Chunks))
	for _, chunk := range s.index.Chunks {
		if chunk.HasEmbedding() && chunk.EmbeddingModel == s.settings.EmbeddingModel {
			chunks = append(chunks, *chunk)
		}
	}
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].Metadata.FilePath != chunks[j].Metadata.FilePath {
			return chunks[i].Metadata.FilePath < chunks[j].Metadata.FilePath
		}
		return chunks[i].Metadata.ChunkIndex < chunks[j].Metadata.ChunkIndex
	})
	return chunks
}

// Stats returns the current derived counts.
func (s *IndexStore) Stats() domain.IndexStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Stats
}

// Settings returns the settings the store was constructed with.
func (s *IndexStore) Settings() domain.IndexSettings {
	return s.settings
}

// PersistPath returns where the index is persisted, for display.
func (s *IndexStore) PersistPath() string {
	return s.persistence.Path()
}
