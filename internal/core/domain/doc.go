// Package domain defines the core business entities for Arkivo.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - FileVersion: Fingerprint of one vault document
//   - DocumentChunk: An independently embeddable unit of a document
//   - VaultIndex: The aggregate root mapping documents to chunks
//   - DebounceState: The change-scheduler state machine
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
