// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ContentSource: Enumerates, reads and watches vault documents
//   - IndexPersistence: Loads and saves the vault index
//   - EmbeddingService: Generates vector embeddings
//
// # Optional Interfaces
//
//   - LLMService: Chat completions. Without it, 'ask' is disabled but
//     indexing and search still work.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
