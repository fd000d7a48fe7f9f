package driving

import (
	"context"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
)

// SearchOptions configure one retrieval call. Zero values fall back to
// the configured search settings.
type SearchOptions struct {
	// ContextPath biases retrieval toward one active document without
	// excluding the rest of the vault. Empty disables boosting.
	ContextPath string

	// Threshold overrides the configured similarity threshold when > 0.
	Threshold float64

	// MaxResults overrides the configured result cap when > 0.
	MaxResults int
}

// QueryService answers retrieval and question-answering requests.
type QueryService interface {
	// Search returns the chunks most similar to the query text,
	// ranked descending.
	Search(ctx context.Context, query string, opts SearchOptions) ([]domain.ScoredChunk, error)

	// Ask retrieves relevant chunks and asks the chat provider to
	// answer the question grounded on them.
	Ask(ctx context.Context, question string, opts SearchOptions) (*domain.Answer, error)
}
