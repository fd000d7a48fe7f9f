package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrReconcileInProgress indicates a reconciliation batch is already
	// running. At most one batch is in flight system-wide.
	ErrReconcileInProgress = errors.New("reconciliation in progress")

	// ErrEmptyCorpus indicates search was invoked with zero embedded
	// chunks. This means indexing has not completed, not that nothing
	// matched, so it is surfaced rather than returned as zero results.
	ErrEmptyCorpus = errors.New("no embedded chunks in index; run 'arkivo index' first")

	// ErrProviderNotConfigured indicates a required embedding or chat
	// provider is missing credentials or an endpoint. Indexing and
	// search refuse to proceed.
	ErrProviderNotConfigured = errors.New("provider not configured")

	// ErrProvider indicates a network or response-shape failure from
	// the embedding or chat provider. Recovered at per-document or
	// per-query granularity.
	ErrProvider = errors.New("provider error")

	// ErrIndexCorrupt indicates persisted index state could not be
	// parsed or has an unsupported version. Recovered locally by
	// resetting to an empty index; never surfaced as a hard failure.
	ErrIndexCorrupt = errors.New("index corrupt")
)
