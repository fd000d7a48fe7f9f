package domain

import "time"

// AIProvider identifies an AI service provider for embeddings or chat.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// ProviderSettings configures one embedding or chat provider.
type ProviderSettings struct {
	// Provider selects the service implementation.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL is the API endpoint (for Ollama, or OpenAI-compatible APIs).
	BaseURL string

	// APIKey is the API key (for OpenAI). Sourced from the environment.
	APIKey string
}

// IsConfigured returns true if the provider is usable.
func (p ProviderSettings) IsConfigured() bool {
	if !p.Provider.IsValid() {
		return false
	}
	if p.Provider.RequiresAPIKey() && p.APIKey == "" {
		return false
	}
	return true
}

// IndexBackend selects the index persistence implementation.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendFile persists the index as a single JSON file.
	IndexBackendFile IndexBackend = "file"

	// IndexBackendSQLite persists the index in a SQLite database.
	IndexBackendSQLite IndexBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	return b == IndexBackendFile || b == IndexBackendSQLite
}

// IndexingSettings configure the index store and change scheduler.
type IndexingSettings struct {
	// Backend selects the persistence implementation.
	Backend IndexBackend

	// Path is where the index is persisted.
	Path string

	// QuiescenceWindow is the debounce duration after the last change
	// event before a batch is processed.
	QuiescenceWindow time.Duration

	// AutoOnStartup runs a reconciliation pass when watch mode starts.
	AutoOnStartup bool

	// AutoOnChange feeds watch events into the change scheduler.
	AutoOnChange bool
}

// SearchSettings configure similarity search behaviour.
type SearchSettings struct {
	// Threshold is the minimum (possibly boosted) similarity to keep.
	Threshold float64

	// ContextBoost multiplies the similarity of chunks from the
	// context document, applied before thresholding.
	ContextBoost float64

	// MaxResults caps the number of results returned.
	MaxResults int
}

// Settings is the full, immutable application configuration. It is
// assembled once at startup and passed by value at construction;
// reconfiguring means building new components from a new Settings.
type Settings struct {
	// VaultRoot is the document collection root directory.
	VaultRoot string

	// Indexing configures persistence and the change scheduler.
	Indexing IndexingSettings

	// Chunking configures the chunker.
	Chunking IndexSettings

	// Embedding configures the embedding provider.
	Embedding ProviderSettings

	// Chat configures the chat provider.
	Chat ProviderSettings

	// Search configures similarity search.
	Search SearchSettings
}

// DefaultSettings returns settings with sensible defaults. Providers are
// left unconfigured; users set them in the config file.
func DefaultSettings() Settings {
	return Settings{
		Indexing: IndexingSettings{
			Backend:          IndexBackendFile,
			QuiescenceWindow: 2 * time.Second,
			AutoOnStartup:    true,
			AutoOnChange:     true,
		},
		Chunking: IndexSettings{
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Search: SearchSettings{
			Threshold:    0.3,
			ContextBoost: 1.2,
			MaxResults:   5,
		},
	}
}
