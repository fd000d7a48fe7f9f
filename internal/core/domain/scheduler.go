package domain

import (
	"sort"
	"time"
)

// Clock abstracts wall-clock time so the debounce state machine can be
// tested without real timers.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// DebounceState is the change scheduler's state machine. Transitions are
// pure: each method returns a new state and never mutates the receiver's
// pending set.
//
// The machine has three shapes:
//   - idle:    not armed, not running, pending empty
//   - armed:   a quiescence deadline is set, pending non-empty
//   - running: a reconciliation batch is in flight; events arriving now
//     re-arm the deadline and are picked up after the batch finishes
type DebounceState struct {
	// Running reports whether a reconciliation batch is in flight.
	Running bool

	// Armed reports whether a quiescence deadline is set.
	Armed bool

	// Deadline is when the pending set becomes due, valid when Armed.
	Deadline time.Time

	// Pending is the set of paths awaiting reconciliation.
	Pending map[string]struct{}
}

// NewDebounceState returns the idle state.
func NewDebounceState() DebounceState {
	return DebounceState{Pending: make(map[string]struct{})}
}

// Observe records a create/modify notification for path and (re)arms the
// quiescence deadline at now+window.
func (s DebounceState) Observe(path string, now time.Time, window time.Duration) DebounceState {
	next := s.clonePending()
	next.Pending[path] = struct{}{}
	next.Armed = true
	next.Deadline = now.Add(window)
	return next
}

// Forget drops a path from the pending set, used when a pending path is
// deleted before its batch ran. The deadline is left armed; an empty due
// set resolves to a no-op batch.
func (s DebounceState) Forget(path string) DebounceState {
	next := s.clonePending()
	delete(next.Pending, path)
	return next
}

// Due reports whether the quiescence deadline has passed and no batch is
// running.
func (s DebounceState) Due(now time.Time) bool {
	return s.Armed && !s.Running && !now.Before(s.Deadline)
}

// Begin snapshots and clears the pending set and marks a batch running.
// The returned paths are sorted for deterministic processing order.
// Callers must check Due first.
func (s DebounceState) Begin() (DebounceState, []string) {
	paths := make([]string, 0, len(s.Pending))
	for path := range s.Pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	next := DebounceState{
		Running: true,
		Pending: make(map[string]struct{}),
	}
	return next, paths
}

// Finish marks the running batch complete. If events arrived during the
// batch the state stays armed and the caller should schedule the next
// expiry; otherwise the machine returns to idle.
func (s DebounceState) Finish() DebounceState {
	next := s.clonePending()
	next.Running = false
	next.Armed = len(next.Pending) > 0
	return next
}

// clonePending copies the state with a fresh pending map.
func (s DebounceState) clonePending() DebounceState {
	pending := make(map[string]struct{}, len(s.Pending))
	for path := range s.Pending {
		pending[path] = struct{}{}
	}
	s.Pending = pending
	return s
}
