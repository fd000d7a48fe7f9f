package domain

import (
	"sort"
	"time"
)

// IndexFormatVersion is the persisted index format version. Loading an
// index with any other version triggers a full rebuild.
const IndexFormatVersion = 1

// IndexSettings are the settings the index was built with. A change of
// EmbeddingModel invalidates existing embeddings.
type IndexSettings struct {
	// EmbeddingModel is the model expected to have produced every
	// stored embedding.
	EmbeddingModel string `json:"embeddingModel"`

	// ChunkSize is the chunking budget in characters.
	ChunkSize int `json:"chunkSize"`

	// ChunkOverlap is the configured chunk overlap in characters.
	ChunkOverlap int `json:"chunkOverlap"`
}

// IndexStats are derived counts, recomputed after every mutation rather
// than tracked incrementally, so they can never drift.
type IndexStats struct {
	// TotalFiles is the number of known documents.
	TotalFiles int `json:"totalFiles"`

	// TotalChunks is the number of stored chunks.
	TotalChunks int `json:"totalChunks"`

	// TotalEmbeddings is the number of chunks carrying an embedding.
	TotalEmbeddings int `json:"totalEmbeddings"`

	// LastFullIndex is when the index was last rebuilt from empty.
	LastFullIndex time.Time `json:"lastFullIndex"`
}

// VaultIndex is the aggregate root: the authoritative mapping from
// document paths to fingerprints and from chunk ids to chunks.
type VaultIndex struct {
	// Version is the persisted format version.
	Version int `json:"version"`

	// CreatedAt is when the index was first created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the index was last persisted.
	UpdatedAt time.Time `json:"updatedAt"`

	// Settings are the settings the index was built with.
	Settings IndexSettings `json:"settings"`

	// Files maps document path to its fingerprint at indexing time.
	Files map[string]FileVersion `json:"files"`

	// Chunks maps chunk id to chunk.
	Chunks map[string]*DocumentChunk `json:"chunks"`

	// Stats are derived counts.
	Stats IndexStats `json:"stats"`
}

// NewVaultIndex creates an empty index for the given settings.
func NewVaultIndex(settings IndexSettings, now time.Time) *VaultIndex {
	return &VaultIndex{
		Version:   IndexFormatVersion,
		CreatedAt: now,
		UpdatedAt: now,
		Settings:  settings,
		Files:     make(map[string]FileVersion),
		Chunks:    make(map[string]*DocumentChunk),
	}
}

// RecomputeStats derives Stats from the current Files and Chunks maps.
// LastFullIndex is preserved.
func (ix *VaultIndex) RecomputeStats() {
	embedded := 0
	for _, chunk := range ix.Chunks {
		if chunk.HasEmbedding() {
			embedded++
		}
	}
	ix.Stats.TotalFiles = len(ix.Files)
	ix.Stats.TotalChunks = len(ix.Chunks)
	ix.Stats.TotalEmbeddings = embedded
}

// PruneOrphans removes chunks whose owning path has no entry in Files.
// Orphans indicate a consistency bug in a previous writer; they are
// removed on load rather than surfaced. Returns the number pruned.
func (ix *VaultIndex) PruneOrphans() int {
	pruned := 0
	for id, chunk := range ix.Chunks {
		if _, ok := ix.Files[chunk.FileVersion.Path]; !ok {
			delete(ix.Chunks, id)
			pruned++
		}
	}
	return pruned
}

// ChunksForPath returns the chunks owned by a document path, ordered by
// ordinal position.
func (ix *VaultIndex) ChunksForPath(path string) []*DocumentChunk {
	var chunks []*DocumentChunk
	for _, chunk := range ix.Chunks {
		if chunk.FileVersion.Path == path {
			chunks = append(chunks, chunk)
		}
	}
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Metadata.ChunkIndex < chunks[j].Metadata.ChunkIndex
	})
	return chunks
}
