package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
	"github.com/arkivo-labs/arkivo-cli/internal/core/ports/driving"
)

// recordingIndexer records the batches and removals it receives.
type recordingIndexer struct {
	mu      sync.Mutex
	batches [][]string
	removed []string
	err     error
}

var _ driving.Indexer = (*recordingIndexer)(nil)

func (r *recordingIndexer) ReconcileAll(_ context.Context) error { return nil }

func (r *recordingIndexer) ReconcilePaths(_ context.Context, paths []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		err := r.err
		r.err = nil
		return err
	}
	r.batches = append(r.batches, paths)
	return nil
}

func (r *recordingIndexer) Remove(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, path)
	return nil
}

func (r *recordingIndexer) Rebuild(_ context.Context) error       { return nil }
func (r *recordingIndexer) Running() bool                         { return false }
func (r *recordingIndexer) Progress() <-chan domain.ProgressEvent { return nil }

func (r *recordingIndexer) batchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func (r *recordingIndexer) removedPaths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.removed...)
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	indexer := &recordingIndexer{}
	d := NewDebouncer(indexer, nil, 30*time.Millisecond)
	defer d.Stop()

	d.Handle(domain.ChangeEvent{Kind: domain.ChangeCreated, Path: "b.md"})
	d.Handle(domain.ChangeEvent{Kind: domain.ChangeModified, Path: "a.md"})
	d.Handle(domain.ChangeEvent{Kind: domain.ChangeModified, Path: "a.md"})

	require.Eventually(t, func() bool { return indexer.batchCount() == 1 },
		time.Second, 5*time.Millisecond)

	indexer.mu.Lock()
	batch := indexer.batches[0]
	indexer.mu.Unlock()
	assert.Equal(t, []string{"a.md", "b.md"}, batch)

	// No further batches arrive once the vault is quiet.
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, indexer.batchCount())
}

func TestDebouncer_DeletesBypassTheWindow(t *testing.T) {
	indexer := &recordingIndexer{}
	d := NewDebouncer(indexer, nil, time.Hour)
	defer d.Stop()

	d.Handle(domain.ChangeEvent{Kind: domain.ChangeDeleted, Path: "gone.md"})

	assert.Equal(t, []string{"gone.md"}, indexer.removedPaths())
	assert.Zero(t, indexer.batchCount())
}

func TestDebouncer_DeleteForgetsPendingPath(t *testing.T) {
	indexer := &recordingIndexer{}
	d := NewDebouncer(indexer, nil, 30*time.Millisecond)
	defer d.Stop()

	d.Handle(domain.ChangeEvent{Kind: domain.ChangeModified, Path: "a.md"})
	d.Handle(domain.ChangeEvent{Kind: domain.ChangeDeleted, Path: "a.md"})

	assert.Equal(t, []string{"a.md"}, indexer.removedPaths())

	// The armed deadline resolves to a no-op batch.
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, indexer.batchCount())
}

func TestDebouncer_RenameRemovesOldAndSchedulesNew(t *testing.T) {
	indexer := &recordingIndexer{}
	d := NewDebouncer(indexer, nil, 30*time.Millisecond)
	defer d.Stop()

	d.Handle(domain.ChangeEvent{
		Kind:    domain.ChangeRenamed,
		Path:    "new.md",
		OldPath: "old.md",
	})

	assert.Equal(t, []string{"old.md"}, indexer.removedPaths())

	require.Eventually(t, func() bool { return indexer.batchCount() == 1 },
		time.Second, 5*time.Millisecond)

	indexer.mu.Lock()
	batch := indexer.batches[0]
	indexer.mu.Unlock()
	assert.Equal(t, []string{"new.md"}, batch)
}

func TestDebouncer_RetriesWhenBatchSlotBusy(t *testing.T) {
	indexer := &recordingIndexer{err: domain.ErrReconcileInProgress}
	d := NewDebouncer(indexer, nil, 20*time.Millisecond)
	defer d.Stop()

	d.Handle(domain.ChangeEvent{Kind: domain.ChangeModified, Path: "a.md"})

	// The rejected batch is re-observed and retried after another window.
	require.Eventually(t, func() bool { return indexer.batchCount() == 1 },
		time.Second, 5*time.Millisecond)

	indexer.mu.Lock()
	batch := indexer.batches[0]
	indexer.mu.Unlock()
	assert.Equal(t, []string{"a.md"}, batch)
}

func TestDebouncer_StopDropsLateEvents(t *testing.T) {
	indexer := &recordingIndexer{}
	d := NewDebouncer(indexer, nil, 10*time.Millisecond)

	d.Stop()
	d.Handle(domain.ChangeEvent{Kind: domain.ChangeModified, Path: "late.md"})
	d.Handle(domain.ChangeEvent{Kind: domain.ChangeDeleted, Path: "late.md"})

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, indexer.batchCount())
	assert.Empty(t, indexer.removedPaths())
}
