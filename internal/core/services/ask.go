package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
	"github.com/arkivo-labs/arkivo-cli/internal/core/ports/driven"
	"github.com/arkivo-labs/arkivo-cli/internal/core/ports/driving"
	"github.com/arkivo-labs/arkivo-cli/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.QueryService = (*AskService)(nil)

const askSystemPrompt = `You answer questions using only the provided vault excerpts.
Cite the source paths of the excerpts you rely on. If the excerpts do
not contain the answer, say so instead of guessing.`

// AskService answers questions by retrieving relevant chunks and asking
// the chat provider to respond grounded on them.
type AskService struct {
	search *SearchService
	llm    driven.LLMService
}

// NewAskService creates an ask service. The llm parameter is optional;
// when nil, Ask fails with ErrProviderNotConfigured but Search works.
func NewAskService(search *SearchService, llm driven.LLMService) *AskService {
	return &AskService{search: search, llm: llm}
}

// Search delegates to the similarity search service.
func (a *AskService) Search(
	ctx context.Context, query string, opts driving.SearchOptions,
) ([]domain.ScoredChunk, error) {
	return a.search.Search(ctx, query, opts)
}

// Ask retrieves the chunks most relevant to the question and asks the
// chat provider for an answer grounded on them.
func (a *AskService) Ask(
	ctx context.Context, question string, opts driving.SearchOptions,
) (*domain.Answer, error) {
	if a.llm == nil {
		return nil, fmt.Errorf("%w: chat provider required for ask", domain.ErrProviderNotConfigured)
	}

	results, err := a.search.Search(ctx, question, opts)
	if err != nil {
		return nil, err
	}

	logger.Debug("Ask: %d supporting chunks", len(results))

	messages := []driven.ChatMessage{
		{Role: "system", Content: askSystemPrompt},
		{Role: "user", Content: buildPrompt(question, results)},
	}

	text, err := a.llm.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: chat: %w", domain.ErrProvider, err)
	}

	return &domain.Answer{Text: text, Sources: results}, nil
}

// buildPrompt assembles the user message: the question followed by the
// retrieved excerpts with their source attributions.
func buildPrompt(question string, results []domain.ScoredChunk) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nExcerpts:\n")

	for _, result := range results {
		meta := result.Chunk.Metadata
		fmt.Fprintf(&b, "\n[%s (part %d of %d)]\n%s\n",
			meta.FilePath, meta.ChunkIndex+1, meta.TotalChunks, result.Chunk.Content)
	}
	return b.String()
}
