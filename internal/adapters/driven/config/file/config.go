// Package file loads application settings from a TOML config file,
// layered over defaults, with API keys sourced from the environment.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
)

// Environment variables consulted at load time.
const (
	// EnvConfigPath overrides the default config file location.
	EnvConfigPath = "ARKIVO_CONFIG"

	// EnvOpenAIKey supplies the OpenAI API key. Keys never live in the
	// config file.
	EnvOpenAIKey = "OPENAI_API_KEY"
)

// fileConfig mirrors the TOML layout. Zero values mean "keep default".
type fileConfig struct {
	Vault    vaultConfig    `toml:"vault"`
	Indexing indexingConfig `toml:"indexing"`
	Chunking chunkingConfig `toml:"chunking"`
	Embed    providerConfig `toml:"embedding"`
	Chat     providerConfig `toml:"chat"`
	Search   searchConfig   `toml:"search"`
}

type vaultConfig struct {
	Root string `toml:"root"`
}

type indexingConfig struct {
	Backend          string `toml:"backend"`
	Path             string `toml:"path"`
	QuiescenceWindow string `toml:"quiescence_window"`
	AutoOnStartup    *bool  `toml:"auto_on_startup"`
	AutoOnChange     *bool  `toml:"auto_on_change"`
}

type chunkingConfig struct {
	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`
}

type providerConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`
}

type searchConfig struct {
	Threshold    float64 `toml:"threshold"`
	ContextBoost float64 `toml:"context_boost"`
	MaxResults   int     `toml:"max_results"`
}

// DefaultPath returns the default config file location,
// ~/.arkivo/config.toml, honouring the ARKIVO_CONFIG override.
func DefaultPath() (string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".arkivo", "config.toml"), nil
}

// Load reads settings from path. A missing file yields the defaults;
// a present but unparsable file is an error so misconfiguration never
// silently degrades to defaults.
func Load(path string) (domain.Settings, error) {
	settings := domain.DefaultSettings()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		applyEnvironment(&settings)
		return settings, nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return domain.Settings{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := apply(&settings, cfg); err != nil {
		return domain.Settings{}, err
	}
	applyEnvironment(&settings)
	return settings, nil
}

// apply overlays non-zero config values onto the defaults.
func apply(settings *domain.Settings, cfg fileConfig) error {
	if cfg.Vault.Root != "" {
		settings.VaultRoot = cfg.Vault.Root
	}

	if cfg.Indexing.Backend != "" {
		backend := domain.IndexBackend(cfg.Indexing.Backend)
		if !backend.IsValid() {
			return fmt.Errorf("unknown index backend %q", cfg.Indexing.Backend)
		}
		settings.Indexing.Backend = backend
	}
	if cfg.Indexing.Path != "" {
		settings.Indexing.Path = cfg.Indexing.Path
	}
	if cfg.Indexing.QuiescenceWindow != "" {
		window, err := time.ParseDuration(cfg.Indexing.QuiescenceWindow)
		if err != nil {
			return fmt.Errorf("parse quiescence_window: %w", err)
		}
		settings.Indexing.QuiescenceWindow = window
	}
	if cfg.Indexing.AutoOnStartup != nil {
		settings.Indexing.AutoOnStartup = *cfg.Indexing.AutoOnStartup
	}
	if cfg.Indexing.AutoOnChange != nil {
		settings.Indexing.AutoOnChange = *cfg.Indexing.AutoOnChange
	}

	if cfg.Chunking.ChunkSize > 0 {
		settings.Chunking.ChunkSize = cfg.Chunking.ChunkSize
	}
	if cfg.Chunking.ChunkOverlap > 0 {
		settings.Chunking.ChunkOverlap = cfg.Chunking.ChunkOverlap
	}

	if err := applyProvider(&settings.Embedding, cfg.Embed); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := applyProvider(&settings.Chat, cfg.Chat); err != nil {
		return fmt.Errorf("chat: %w", err)
	}

	if cfg.Search.Threshold > 0 {
		settings.Search.Threshold = cfg.Search.Threshold
	}
	if cfg.Search.ContextBoost > 0 {
		settings.Search.ContextBoost = cfg.Search.ContextBoost
	}
	if cfg.Search.MaxResults > 0 {
		settings.Search.MaxResults = cfg.Search.MaxResults
	}
	return nil
}

// applyProvider overlays one provider section.
func applyProvider(target *domain.ProviderSettings, cfg providerConfig) error {
	if cfg.Provider != "" {
		provider := domain.AIProvider(cfg.Provider)
		if !provider.IsValid() {
			return fmt.Errorf("unknown provider %q", cfg.Provider)
		}
		target.Provider = provider
	}
	if cfg.Model != "" {
		target.Model = cfg.Model
	}
	if cfg.BaseURL != "" {
		target.BaseURL = cfg.BaseURL
	}
	return nil
}

// applyEnvironment fills values that only come from the environment
// and derives paths left unset.
func applyEnvironment(settings *domain.Settings) {
	key := os.Getenv(EnvOpenAIKey)
	if settings.Embedding.Provider == domain.AIProviderOpenAI {
		settings.Embedding.APIKey = key
	}
	if settings.Chat.Provider == domain.AIProviderOpenAI {
		settings.Chat.APIKey = key
	}

	// The embedding model in the chunking settings drives staleness
	// detection; keep it aligned with the provider configuration.
	settings.Chunking.EmbeddingModel = settings.Embedding.Model

	if settings.Indexing.Path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			name := "index.json"
			if settings.Indexing.Backend == domain.IndexBackendSQLite {
				name = "index.db"
			}
			settings.Indexing.Path = filepath.Join(home, ".arkivo", name)
		}
	}
}
