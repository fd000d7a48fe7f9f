package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
	"github.com/arkivo-labs/arkivo-cli/internal/core/ports/driven"
	"github.com/arkivo-labs/arkivo-cli/internal/core/ports/driving"
	"github.com/arkivo-labs/arkivo-cli/internal/logger"
)

// SearchService ranks stored chunks against a query embedding using
// cosine similarity with contextual relevance boosting.
type SearchService struct {
	store    *IndexStore
	embedder driven.EmbeddingService
	settings domain.SearchSettings
}

// NewSearchService creates a search service.
func NewSearchService(store *IndexStore, embedder driven.EmbeddingService, settings domain.SearchSettings) *SearchService {
	return &SearchService{
		store:    store,
		embedder: embedder,
		settings: settings,
	}
}

// Search embeds the query and returns the most similar chunks, ranked
// descending. An index with zero embedded chunks is an error, not an
// empty result: it means indexing has not run, not that nothing matched.
func (s *SearchService) Search(
	ctx context.Context, query string, opts driving.SearchOptions,
) ([]domain.ScoredChunk, error) {
	logger.Section("Search Execution")

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: embedding provider required for search", domain.ErrProviderNotConfigured)
	}

	chunks := s.store.EmbeddedChunks()
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	logger.Debug("Corpus: %d embedded chunks", len(chunks))

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrProvider, err)
	}

	threshold := s.settings.Threshold
	if opts.Threshold > 0 {
		threshold = opts.Threshold
	}
	topK := s.settings.MaxResults
	if opts.MaxResults > 0 {
		topK = opts.MaxResults
	}

	results := Rank(queryVector, chunks, opts.ContextPath, s.settings.ContextBoost, threshold, topK)
	logger.Info("Search: %d results above threshold %.2f", len(results), threshold)
	return results, nil
}

// Rank scores chunks against a query vector. Chunks from contextPath
// get their similarity multiplied by boost before thresholding, letting
// callers bias retrieval toward one active document without excluding
// the rest of the vault. Ties break by original chunk order.
func Rank(
	query []float32,
	chunks []domain.DocumentChunk,
	contextPath string,
	boost, threshold float64,
	topK int,
) []domain.ScoredChunk {
	if boost <= 0 {
		boost = 1
	}

	results := make([]domain.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		score := CosineSimilarity(query, chunk.Embedding)
		if contextPath != "" && chunk.FileVersion.Path == contextPath {
			score *= boost
		}
		if score < threshold {
			continue
		}
		results = append(results, domain.ScoredChunk{Chunk: chunk, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// CosineSimilarity computes dot(a,b) / (|a|*|b|) in [-1, 1]. Mismatched
// lengths or a zero-magnitude vector yield 0 rather than NaN.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
