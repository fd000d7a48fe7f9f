package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
	"github.com/arkivo-labs/arkivo-cli/internal/core/ports/driving"
	"github.com/arkivo-labs/arkivo-cli/internal/logger"
)

// Ensure Debouncer implements the interface.
var _ driving.ChangeScheduler = (*Debouncer)(nil)

// Debouncer coalesces change notifications into reconciliation batches.
// Creates and modifications re-arm a quiescence deadline; only after the
// vault has been quiet for the full window does a batch run. Deletions
// skip the window entirely since they need no embedding work.
type Debouncer struct {
	indexer driving.Indexer
	clock   domain.Clock
	window  time.Duration

	mu      sync.Mutex
	state   domain.DebounceState
	timer   *time.Timer
	stopped bool

	wg sync.WaitGroup
}

// NewDebouncer creates a change scheduler with the given quiescence
// window.
func NewDebouncer(indexer driving.Indexer, clock domain.Clock, window time.Duration) *Debouncer {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Debouncer{
		indexer: indexer,
		clock:   clock,
		window:  window,
		state:   domain.NewDebounceState(),
	}
}

// Handle processes one change event. Renames are treated as a removal of
// the old path plus a fresh observation of the new one.
func (d *Debouncer) Handle(event domain.ChangeEvent) {
	switch event.Kind {
	case domain.ChangeCreated, domain.ChangeModified:
		d.observe(event.Path)

	case domain.ChangeDeleted:
		d.removeNow(event.Path)

	case domain.ChangeRenamed:
		d.removeNow(event.OldPath)
		d.observe(event.Path)
	}
}

// Stop cancels the pending timer and waits for an in-flight batch.
// Events arriving after Stop are dropped.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	d.wg.Wait()
}

// observe adds a path to the pending set and re-arms the deadline.
func (d *Debouncer) observe(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.state = d.state.Observe(path, d.clock.Now(), d.window)
	logger.Debug("Change observed: %s (%d pending)", path, len(d.state.Pending))
	d.armLocked(d.window)
}

// removeNow forgets a pending path and removes it from the index
// immediately.
func (d *Debouncer) removeNow(path string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.state = d.state.Forget(path)
	d.mu.Unlock()

	if err := d.indexer.Remove(context.Background(), path); err != nil {
		logger.Warn("Failed to remove %s from index: %v", path, err)
	}
}

// armLocked schedules the expiry check. The caller holds d.mu.
func (d *Debouncer) armLocked(delay time.Duration) {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(delay, d.expire)
}

// expire runs when the timer fires. If the state is not due yet, because
// a batch is running or a later event pushed the deadline, the timer is
// re-armed; otherwise the pending set is snapshotted and a batch starts.
func (d *Debouncer) expire() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	now := d.clock.Now()
	if !d.state.Due(now) {
		if d.state.Running {
			d.armLocked(d.window)
		} else if d.state.Armed {
			d.armLocked(d.state.Deadline.Sub(now))
		}
		return
	}

	next, paths := d.state.Begin()
	d.state = next

	if len(paths) == 0 {
		d.state = d.state.Finish()
		return
	}

	d.wg.Add(1)
	go d.run(paths)
}

// run executes one reconciliation batch off the timer goroutine.
func (d *Debouncer) run(paths []string) {
	defer d.wg.Done()

	logger.Debug("Quiescence reached, reconciling %d paths", len(paths))
	err := d.indexer.ReconcilePaths(context.Background(), paths)

	d.mu.Lock()
	defer d.mu.Unlock()

	if errors.Is(err, domain.ErrReconcileInProgress) {
		// Another caller holds the batch slot. Put the paths back and
		// retry after a full window.
		now := d.clock.Now()
		for _, path := range paths {
			d.state = d.state.Observe(path, now, d.window)
		}
	} else if err != nil {
		logger.Warn("Reconciliation batch failed: %v", err)
	}

	d.state = d.state.Finish()
	if d.state.Armed && !d.stopped {
		d.armLocked(d.window)
	}
}
