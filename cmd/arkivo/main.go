// Command arkivo maintains a semantic index over a local document
// vault and serves similarity searches and questions against it.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/arkivo-labs/arkivo-cli/internal/adapters/driven/config/file"
	embeddingollama "github.com/arkivo-labs/arkivo-cli/internal/adapters/driven/embedding/ollama"
	embeddingopenai "github.com/arkivo-labs/arkivo-cli/internal/adapters/driven/embedding/openai"
	llmollama "github.com/arkivo-labs/arkivo-cli/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/arkivo-labs/arkivo-cli/internal/adapters/driven/llm/openai"
	storagefile "github.com/arkivo-labs/arkivo-cli/internal/adapters/driven/storage/file"
	storagesqlite "github.com/arkivo-labs/arkivo-cli/internal/adapters/driven/storage/sqlite"
	"github.com/arkivo-labs/arkivo-cli/internal/adapters/driving/cli"
	"github.com/arkivo-labs/arkivo-cli/internal/chunker"
	"github.com/arkivo-labs/arkivo-cli/internal/connectors/filesystem"
	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
	"github.com/arkivo-labs/arkivo-cli/internal/core/ports/driven"
	"github.com/arkivo-labs/arkivo-cli/internal/core/services"
	"github.com/arkivo-labs/arkivo-cli/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	configPath, err := file.DefaultPath()
	if err != nil {
		return err
	}
	settings, err := file.Load(configPath)
	if err != nil {
		return err
	}
	if settings.VaultRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving vault root: %w", err)
		}
		settings.VaultRoot = cwd
	}

	source := filesystem.New(settings.VaultRoot)
	if err := source.Validate(); err != nil {
		return err
	}
	defer source.Close()

	embedder, err := buildEmbedder(settings.Embedding)
	if err != nil {
		return err
	}
	if embedder != nil {
		defer embedder.Close()
		// Staleness detection compares stored model names against this.
		settings.Chunking.EmbeddingModel = embedder.ModelName()
	}

	llm, err := buildLLM(settings.Chat)
	if err != nil {
		return err
	}
	if llm != nil {
		defer llm.Close()
	}

	persistence, err := buildPersistence(settings.Indexing)
	if err != nil {
		return err
	}
	defer persistence.Close()

	store := services.NewIndexStore(persistence, source, settings.Chunking, nil)
	if err := store.Load(context.Background()); err != nil {
		return fmt.Errorf("loading index: %w", err)
	}

	ck := chunker.New(chunker.WithChunkSize(settings.Chunking.ChunkSize))
	reconciler := services.NewReconciler(store, source, embedder, ck, 0)
	debouncer := services.NewDebouncer(reconciler, nil, settings.Indexing.QuiescenceWindow)
	searchService := services.NewSearchService(store, embedder, settings.Search)
	askService := services.NewAskService(searchService, llm)

	cli.Configure(cli.Deps{
		Indexer:   reconciler,
		Scheduler: debouncer,
		Query:     askService,
		Source:    source,
		Store:     store,
		Settings:  settings,
	})
	return cli.Execute()
}

// buildEmbedder constructs the configured embedding service, or nil
// when none is configured.
func buildEmbedder(cfg domain.ProviderSettings) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case domain.AIProviderOllama:
		return embeddingollama.NewEmbeddingService(embeddingollama.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil

	case domain.AIProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embedding provider openai requires %s", file.EnvOpenAIKey)
		}
		return embeddingopenai.NewEmbeddingService(embeddingopenai.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})

	default:
		logger.Debug("No embedding provider configured")
		return nil, nil
	}
}

// buildLLM constructs the configured chat service, or nil when none is
// configured.
func buildLLM(cfg domain.ProviderSettings) (driven.LLMService, error) {
	switch cfg.Provider {
	case domain.AIProviderOllama:
		return llmollama.NewLLMService(llmollama.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil

	case domain.AIProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("chat provider openai requires %s", file.EnvOpenAIKey)
		}
		return llmopenai.NewLLMService(llmopenai.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})

	default:
		logger.Debug("No chat provider configured")
		return nil, nil
	}
}

// buildPersistence constructs the configured index backend.
func buildPersistence(cfg domain.IndexingSettings) (driven.IndexPersistence, error) {
	switch cfg.Backend {
	case domain.IndexBackendSQLite:
		return storagesqlite.New(cfg.Path)
	default:
		return storagefile.New(cfg.Path), nil
	}
}
