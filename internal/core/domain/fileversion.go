package domain

import (
	"fmt"
	"hash/fnv"
	"time"
)

// FileVersion is the change-detection fingerprint of one vault
// document. A document is up to date exactly when its stored
// fingerprint equals a freshly computed one on every field.
type FileVersion struct {
	// Path is the vault-relative path, the document's identity.
	Path string `json:"path"`

	// ModifiedTime is the filesystem modification time at indexing.
	ModifiedTime time.Time `json:"modifiedTime"`

	// ByteSize is the document size in bytes at indexing.
	ByteSize int64 `json:"byteSize"`

	// ContentHash is the FNV-1a digest of the document content.
	ContentHash string `json:"contentHash"`
}

// Equal reports field-wise equality. Times compare with time.Equal so
// differing monotonic clocks or locations do not break matching.
func (v FileVersion) Equal(other FileVersion) bool {
	return v.Path == other.Path &&
		v.ModifiedTime.Equal(other.ModifiedTime) &&
		v.ByteSize == other.ByteSize &&
		v.ContentHash == other.ContentHash
}

// HashContent digests content with 64-bit FNV-1a. The hash guards
// against content changes that preserve size and mtime; it is not a
// cryptographic integrity check.
func HashContent(content []byte) string {
	h := fnv.New64a()
	h.Write(content)
	return fmt.Sprintf("%016x", h.Sum64())
}

// FileStat is the subset of file metadata a content source reports.
type FileStat struct {
	// ModifiedTime is the current modification time.
	ModifiedTime time.Time

	// ByteSize is the current size in bytes.
	ByteSize int64
}
