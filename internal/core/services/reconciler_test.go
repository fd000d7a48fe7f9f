package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/arkivo-labs/arkivo-cli/internal/chunker"
	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
)

// testEmbedRate removes rate limiting from tests.
const testEmbedRate = rate.Limit(1_000_000)

func newTestReconciler(store *IndexStore, source *fakeSource, embedder *fakeEmbedder) *Reconciler {
	return NewReconciler(store, source, embedder, chunker.New(), testEmbedRate)
}

func TestReconciler_ReconcileAll(t *testing.T) {
	ctx := context.Background()

	t.Run("indexes and embeds every outdated document", func(t *testing.T) {
		source := newFakeSource()
		source.setDoc("a.md", "alpha content", testTime)
		source.setDoc("b.md", "beta content", testTime)
		store := newLoadedStore(t, source, &fakePersistence{})
		embedder := newFakeEmbedder()

		r := newTestReconciler(store, source, embedder)
		require.NoError(t, r.ReconcileAll(ctx))

		stats := store.Stats()
		assert.Equal(t, 2, stats.TotalFiles)
		assert.Equal(t, 2, stats.TotalChunks)
		assert.Equal(t, 2, stats.TotalEmbeddings)
		assert.Equal(t, 2, embedder.callCount())
	})

	t.Run("second pass over an unchanged vault does nothing", func(t *testing.T) {
		source := newFakeSource()
		source.setDoc("a.md", "alpha content", testTime)
		store := newLoadedStore(t, source, &fakePersistence{})
		embedder := newFakeEmbedder()

		r := newTestReconciler(store, source, embedder)
		require.NoError(t, r.ReconcileAll(ctx))
		first := embedder.callCount()

		require.NoError(t, r.ReconcileAll(ctx))
		assert.Equal(t, first, embedder.callCount())
	})

	t.Run("contains per-document failures", func(t *testing.T) {
		source := newFakeSource()
		source.setDoc("bad.md", "poison content", testTime)
		source.setDoc("good.md", "healthy content", testTime)
		store := newLoadedStore(t, source, &fakePersistence{})
		embedder := newFakeEmbedder()
		embedder.failOn["poison content"] = true

		r := newTestReconciler(store, source, embedder)
		require.NoError(t, r.ReconcileAll(ctx))

		// Both documents are chunked; only the healthy one is embedded.
		stats := store.Stats()
		assert.Equal(t, 2, stats.TotalFiles)
		assert.Equal(t, 1, stats.TotalEmbeddings)
	})

	t.Run("failed document is retried on the next pass", func(t *testing.T) {
		source := newFakeSource()
		source.setDoc("flaky.md", "flaky content", testTime)
		store := newLoadedStore(t, source, &fakePersistence{})
		embedder := newFakeEmbedder()
		embedder.failOn["flaky content"] = true

		r := newTestReconciler(store, source, embedder)
		require.NoError(t, r.ReconcileAll(ctx))
		require.Zero(t, store.Stats().TotalEmbeddings)

		embedder.failOn = map[string]bool{}
		require.NoError(t, r.ReconcileAll(ctx))
		assert.Equal(t, 1, store.Stats().TotalEmbeddings)
	})

	t.Run("fails without an embedding provider", func(t *testing.T) {
		source := newFakeSource()
		source.setDoc("a.md", "content", testTime)
		store := newLoadedStore(t, source, &fakePersistence{})

		r := NewReconciler(store, source, nil, chunker.New(), testEmbedRate)
		err := r.ReconcileAll(ctx)

		assert.ErrorIs(t, err, domain.ErrProviderNotConfigured)
	})
}

func TestReconciler_ReconcilePaths(t *testing.T) {
	ctx := context.Background()

	t.Run("restricts the batch to the given paths", func(t *testing.T) {
		source := newFakeSource()
		source.setDoc("wanted.md", "wanted content", testTime)
		source.setDoc("other.md", "other content", testTime)
		store := newLoadedStore(t, source, &fakePersistence{})
		embedder := newFakeEmbedder()

		r := newTestReconciler(store, source, embedder)
		require.NoError(t, r.ReconcilePaths(ctx, []string{"wanted.md"}))

		assert.Equal(t, 1, store.Stats().TotalFiles)
	})

	t.Run("skips paths that are already current", func(t *testing.T) {
		source := newFakeSource()
		source.setDoc("a.md", "content", testTime)
		store := newLoadedStore(t, source, &fakePersistence{})
		embedder := newFakeEmbedder()

		r := newTestReconciler(store, source, embedder)
		require.NoError(t, r.ReconcileAll(ctx))
		before := embedder.callCount()

		require.NoError(t, r.ReconcilePaths(ctx, []string{"a.md"}))
		assert.Equal(t, before, embedder.callCount())
	})
}

func TestReconciler_Reentrancy(t *testing.T) {
	ctx := context.Background()

	source := newFakeSource()
	source.setDoc("a.md", "slow content", testTime)
	store := newLoadedStore(t, source, &fakePersistence{})

	embedder := newFakeEmbedder()
	embedder.block = make(chan struct{})

	r := newTestReconciler(store, source, embedder)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- r.ReconcileAll(ctx)
	}()

	require.Eventually(t, r.Running, time.Second, time.Millisecond)

	err := r.ReconcileAll(ctx)
	assert.ErrorIs(t, err, domain.ErrReconcileInProgress)

	close(embedder.block)
	require.NoError(t, <-firstDone)
	assert.False(t, r.Running())
}

func TestReconciler_Progress(t *testing.T) {
	ctx := context.Background()

	source := newFakeSource()
	source.setDoc("a.md", "content", testTime)
	store := newLoadedStore(t, source, &fakePersistence{})
	embedder := newFakeEmbedder()

	r := newTestReconciler(store, source, embedder)
	require.NoError(t, r.ReconcileAll(ctx))

	var phases []domain.ProgressPhase
	var batchIDs []string
drain:
	for {
		select {
		case event := <-r.Progress():
			phases = append(phases, event.Phase)
			batchIDs = append(batchIDs, event.BatchID)
		default:
			break drain
		}
	}

	require.NotEmpty(t, phases)
	assert.Equal(t, domain.PhaseComplete, phases[len(phases)-1])
	for _, id := range batchIDs {
		assert.Equal(t, batchIDs[0], id, "events of one batch share a batch id")
	}
}

func TestReconciler_Remove(t *testing.T) {
	ctx := context.Background()

	source := newFakeSource()
	source.setDoc("a.md", "content", testTime)
	store := newLoadedStore(t, source, &fakePersistence{})
	embedder := newFakeEmbedder()

	r := newTestReconciler(store, source, embedder)
	require.NoError(t, r.ReconcileAll(ctx))
	require.Equal(t, 1, store.Stats().TotalFiles)

	require.NoError(t, r.Remove(ctx, "a.md"))
	assert.Zero(t, store.Stats().TotalFiles)
}

func TestReconciler_Rebuild(t *testing.T) {
	ctx := context.Background()

	source := newFakeSource()
	source.setDoc("a.md", "content", testTime)
	store := newLoadedStore(t, source, &fakePersistence{})
	embedder := newFakeEmbedder()

	r := newTestReconciler(store, source, embedder)
	require.NoError(t, r.ReconcileAll(ctx))
	before := embedder.callCount()

	require.NoError(t, r.Rebuild(ctx))

	// Everything is re-embedded from scratch.
	assert.Equal(t, before*2, embedder.callCount())
	assert.Equal(t, 1, store.Stats().TotalEmbeddings)
}
