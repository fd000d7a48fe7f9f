package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		settings, err := Load(filepath.Join(t.TempDir(), "absent.toml"))

		require.NoError(t, err)
		defaults := domain.DefaultSettings()
		assert.Equal(t, defaults.Indexing.Backend, settings.Indexing.Backend)
		assert.Equal(t, defaults.Chunking.ChunkSize, settings.Chunking.ChunkSize)
		assert.Equal(t, defaults.Search.Threshold, settings.Search.Threshold)
	})

	t.Run("overlays configured values onto defaults", func(t *testing.T) {
		path := writeConfig(t, `
[vault]
root = "/vaults/notes"

[indexing]
backend = "sqlite"
quiescence_window = "5s"
auto_on_startup = false

[chunking]
chunk_size = 1500

[embedding]
provider = "ollama"
model = "nomic-embed-text"

[chat]
provider = "ollama"
model = "llama3.2"

[search]
threshold = 0.4
context_boost = 1.5
max_results = 8
`)

		settings, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "/vaults/notes", settings.VaultRoot)
		assert.Equal(t, domain.IndexBackendSQLite, settings.Indexing.Backend)
		assert.Equal(t, 5*time.Second, settings.Indexing.QuiescenceWindow)
		assert.False(t, settings.Indexing.AutoOnStartup)
		assert.True(t, settings.Indexing.AutoOnChange, "unset values keep their default")
		assert.Equal(t, 1500, settings.Chunking.ChunkSize)
		assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
		assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
		assert.Equal(t, "nomic-embed-text", settings.Chunking.EmbeddingModel)
		assert.Equal(t, 0.4, settings.Search.Threshold)
		assert.Equal(t, 1.5, settings.Search.ContextBoost)
		assert.Equal(t, 8, settings.Search.MaxResults)
	})

	t.Run("reads the openai key from the environment", func(t *testing.T) {
		t.Setenv(EnvOpenAIKey, "sk-test-key")
		path := writeConfig(t, `
[embedding]
provider = "openai"
model = "text-embedding-3-small"
`)

		settings, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "sk-test-key", settings.Embedding.APIKey)
	})

	t.Run("rejects an unknown backend", func(t *testing.T) {
		path := writeConfig(t, `
[indexing]
backend = "redis"
`)

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("rejects an unknown provider", func(t *testing.T) {
		path := writeConfig(t, `
[embedding]
provider = "mystery"
`)

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("rejects a malformed quiescence window", func(t *testing.T) {
		path := writeConfig(t, `
[indexing]
quiescence_window = "soon"
`)

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("rejects unparsable toml", func(t *testing.T) {
		path := writeConfig(t, "not [valid toml")

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestDefaultPath(t *testing.T) {
	t.Run("honours the environment override", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "/custom/config.toml")

		path, err := DefaultPath()

		require.NoError(t, err)
		assert.Equal(t, "/custom/config.toml", path)
	})

	t.Run("defaults under the home directory", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")

		path, err := DefaultPath()

		require.NoError(t, err)
		assert.Contains(t, path, ".arkivo")
	})
}
