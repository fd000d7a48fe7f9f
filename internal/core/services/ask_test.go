package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
	"github.com/arkivo-labs/arkivo-cli/internal/core/ports/driving"
)

func TestAskService_Ask(t *testing.T) {
	ctx := context.Background()

	t.Run("grounds the prompt on retrieved chunks", func(t *testing.T) {
		search, _ := searchFixture(t)
		llm := &fakeLLM{reply: "Alpha is the first letter."}
		service := NewAskService(search, llm)

		answer, err := service.Ask(ctx, "find alpha", driving.SearchOptions{})

		require.NoError(t, err)
		assert.Equal(t, "Alpha is the first letter.", answer.Text)
		require.NotEmpty(t, answer.Sources)
		assert.Equal(t, "a.md", answer.Sources[0].Chunk.Metadata.FilePath)

		require.Len(t, llm.messages, 2)
		assert.Equal(t, "system", llm.messages[0].Role)
		assert.Equal(t, "user", llm.messages[1].Role)
		assert.Contains(t, llm.messages[1].Content, "find alpha")
		assert.Contains(t, llm.messages[1].Content, "[a.md")
		assert.Contains(t, llm.messages[1].Content, "alpha")
	})

	t.Run("fails without a chat provider", func(t *testing.T) {
		search, _ := searchFixture(t)
		service := NewAskService(search, nil)

		_, err := service.Ask(ctx, "anything", driving.SearchOptions{})

		assert.ErrorIs(t, err, domain.ErrProviderNotConfigured)
	})

	t.Run("propagates search failures", func(t *testing.T) {
		store := newLoadedStore(t, newFakeSource(), &fakePersistence{})
		search := NewSearchService(store, newFakeEmbedder(), domain.SearchSettings{})
		service := NewAskService(search, &fakeLLM{reply: "unused"})

		_, err := service.Ask(ctx, "anything", driving.SearchOptions{})

		assert.ErrorIs(t, err, domain.ErrEmptyCorpus)
	})
}

func TestAskService_Search(t *testing.T) {
	ctx := context.Background()

	search, _ := searchFixture(t)
	service := NewAskService(search, nil)

	results, err := service.Search(ctx, "find alpha", driving.SearchOptions{})

	require.NoError(t, err)
	assert.NotEmpty(t, results)
}
