package domain

// DocumentRef identifies one document in the content source.
type DocumentRef struct {
	// Path is the vault-relative, slash-separated document path.
	Path string
}

// ChangeKind identifies the type of a content-source change event.
type ChangeKind string

// Available change kinds.
const (
	// ChangeCreated indicates a new document appeared.
	ChangeCreated ChangeKind = "created"

	// ChangeModified indicates an existing document's content changed.
	ChangeModified ChangeKind = "modified"

	// ChangeDeleted indicates a document was removed.
	ChangeDeleted ChangeKind = "deleted"

	// ChangeRenamed indicates a document moved from OldPath to Path.
	ChangeRenamed ChangeKind = "renamed"
)

// ChangeEvent is one change notification from a content source.
type ChangeEvent struct {
	// Kind is the type of change.
	Kind ChangeKind

	// Path is the affected document path.
	Path string

	// OldPath is the previous path for renames, empty otherwise.
	OldPath string
}
