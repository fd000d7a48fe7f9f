package domain

import (
	"fmt"
	"time"
)

// ChunkMetadata carries the positional and structural metadata of a chunk.
type ChunkMetadata struct {
	// FileName is the base name of the owning document.
	FileName string `json:"fileName"`

	// FilePath is the vault-relative path of the owning document.
	FilePath string `json:"filePath"`

	// Tags are the #tags extracted from the document body.
	// They are shared by every chunk of the document.
	Tags []string `json:"tags,omitempty"`

	// FrontMatter holds the parsed front-matter key/value pairs.
	// Shared by every chunk of the document.
	FrontMatter map[string]FrontMatterValue `json:"frontMatter,omitempty"`

	// ChunkIndex is the ordinal position within the document.
	ChunkIndex int `json:"chunkIndex"`

	// TotalChunks is the number of chunks produced for the document.
	// Every chunk of a document reports the same value.
	TotalChunks int `json:"totalChunks"`

	// StartOffset is the character offset of the chunk within the
	// document body (after front matter).
	StartOffset int `json:"startOffset"`

	// EndOffset is the character offset just past the chunk content.
	EndOffset int `json:"endOffset"`
}

// DocumentChunk is one indexed unit of a document.
type DocumentChunk struct {
	// ID is deterministic: "{path}:{ordinal}".
	ID string `json:"id"`

	// FileVersion is the owning document's fingerprint, copied at
	// indexing time rather than referenced.
	FileVersion FileVersion `json:"fileVersion"`

	// Content is the chunk text.
	Content string `json:"content"`

	// Metadata carries positional and structural information.
	Metadata ChunkMetadata `json:"metadata"`

	// Embedding is the vector representation, nil until embedded.
	Embedding []float32 `json:"embedding,omitempty"`

	// EmbeddingModel names the model that produced Embedding.
	// Non-empty exactly when Embedding is non-nil; a chunk whose model
	// disagrees with the index settings is stale and excluded from search.
	EmbeddingModel string `json:"embeddingModel,omitempty"`

	// CreatedAt is when the chunk was first stored.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the chunk was last stored or embedded.
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChunkID builds the deterministic chunk identifier for a document path
// and ordinal position.
func ChunkID(path string, ordinal int) string {
	return fmt.Sprintf("%s:%d", path, ordinal)
}

// HasEmbedding reports whether the chunk carries an embedding.
func (c *DocumentChunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// ScoredChunk is a chunk paired with its similarity score.
type ScoredChunk struct {
	// Chunk is the matched chunk.
	Chunk DocumentChunk

	// Score is the (possibly boosted) cosine similarity.
	Score float64
}

// Answer is the result of a question answered against the vault.
type Answer struct {
	// Text is the chat provider's response.
	Text string

	// Sources are the chunks the answer was grounded on, ranked.
	Sources []ScoredChunk
}
