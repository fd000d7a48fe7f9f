package domain

// ProgressPhase identifies where in the reconcile pipeline a batch is.
type ProgressPhase string

// Available progress phases.
const (
	// PhaseChunking indicates a document has been read and chunked.
	PhaseChunking ProgressPhase = "chunking"

	// PhaseEmbedding indicates a document's chunks have been embedded.
	PhaseEmbedding ProgressPhase = "embedding"

	// PhaseComplete indicates the batch finished. Emitted exactly once
	// per batch, including the zero-document case.
	PhaseComplete ProgressPhase = "complete"
)

// ProgressEvent is one entry in the reconciler's progress stream.
// Presentation layers read these from a bounded channel; the engine
// never blocks on a slow consumer.
type ProgressEvent struct {
	// BatchID correlates events belonging to one reconciliation batch.
	BatchID string

	// Phase is the pipeline phase the event reports.
	Phase ProgressPhase

	// Current is the number of documents completed so far.
	Current int

	// Total is the number of documents in the batch.
	Total int

	// Document is the path of the document just completed, empty on
	// the final complete event.
	Document string
}
