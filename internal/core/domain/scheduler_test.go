package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebounceState_Observe(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	window := 2 * time.Second

	t.Run("arms the deadline and records the path", func(t *testing.T) {
		s := NewDebounceState().Observe("a.md", base, window)

		assert.True(t, s.Armed)
		assert.Equal(t, base.Add(window), s.Deadline)
		assert.Contains(t, s.Pending, "a.md")
	})

	t.Run("later events push the deadline", func(t *testing.T) {
		s := NewDebounceState().
			Observe("a.md", base, window).
			Observe("b.md", base.Add(time.Second), window)

		assert.Equal(t, base.Add(time.Second).Add(window), s.Deadline)
		assert.Len(t, s.Pending, 2)
	})

	t.Run("duplicate paths coalesce", func(t *testing.T) {
		s := NewDebounceState().
			Observe("a.md", base, window).
			Observe("a.md", base.Add(time.Second), window)

		assert.Len(t, s.Pending, 1)
	})

	t.Run("does not mutate the previous state", func(t *testing.T) {
		first := NewDebounceState().Observe("a.md", base, window)
		_ = first.Observe("b.md", base, window)

		assert.Len(t, first.Pending, 1)
	})
}

func TestDebounceState_Due(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	window := 2 * time.Second

	t.Run("not due before the deadline", func(t *testing.T) {
		s := NewDebounceState().Observe("a.md", base, window)
		assert.False(t, s.Due(base.Add(window-time.Millisecond)))
	})

	t.Run("due at and after the deadline", func(t *testing.T) {
		s := NewDebounceState().Observe("a.md", base, window)
		assert.True(t, s.Due(base.Add(window)))
		assert.True(t, s.Due(base.Add(time.Minute)))
	})

	t.Run("never due while a batch runs", func(t *testing.T) {
		s := NewDebounceState().Observe("a.md", base, window)
		s, _ = s.Begin()
		s = s.Observe("b.md", base, window)

		assert.False(t, s.Due(base.Add(time.Minute)))
	})

	t.Run("idle state is not due", func(t *testing.T) {
		assert.False(t, NewDebounceState().Due(base))
	})
}

func TestDebounceState_Begin(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("snapshots sorted paths and clears pending", func(t *testing.T) {
		s := NewDebounceState().
			Observe("b.md", base, time.Second).
			Observe("a.md", base, time.Second)

		s, paths := s.Begin()

		assert.Equal(t, []string{"a.md", "b.md"}, paths)
		assert.True(t, s.Running)
		assert.Empty(t, s.Pending)
	})
}

func TestDebounceState_Finish(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("returns to idle with no pending events", func(t *testing.T) {
		s := NewDebounceState().Observe("a.md", base, time.Second)
		s, _ = s.Begin()
		s = s.Finish()

		assert.False(t, s.Running)
		assert.False(t, s.Armed)
	})

	t.Run("stays armed when events arrived during the batch", func(t *testing.T) {
		s := NewDebounceState().Observe("a.md", base, time.Second)
		s, _ = s.Begin()
		s = s.Observe("b.md", base.Add(time.Second), time.Second)
		s = s.Finish()

		assert.False(t, s.Running)
		assert.True(t, s.Armed)
		require.Contains(t, s.Pending, "b.md")
	})
}

func TestDebounceState_Forget(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("drops a pending path but leaves the deadline armed", func(t *testing.T) {
		s := NewDebounceState().
			Observe("a.md", base, time.Second).
			Forget("a.md")

		assert.Empty(t, s.Pending)
		assert.True(t, s.Armed)
	})

	t.Run("empty due set resolves to a no-op batch", func(t *testing.T) {
		s := NewDebounceState().
			Observe("a.md", base, time.Second).
			Forget("a.md")

		require.True(t, s.Due(base.Add(time.Second)))
		s, paths := s.Begin()
		assert.Empty(t, paths)
		s = s.Finish()
		assert.False(t, s.Armed)
	})
}
