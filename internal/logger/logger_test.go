package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t)

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels(t *testing.T) {
	t.Run("debug formats with a level prefix", func(t *testing.T) {
		buf := capture(t)
		SetVerbose(true)

		Debug("indexed %s", "a.md")

		assert.Equal(t, "[DEBUG] indexed a.md\n", buf.String())
	})

	t.Run("info formats with a level prefix", func(t *testing.T) {
		buf := capture(t)
		SetVerbose(true)

		Info("reconciled %d documents", 3)

		assert.Equal(t, "[INFO] reconciled 3 documents\n", buf.String())
	})

	t.Run("warn formats with a level prefix", func(t *testing.T) {
		buf := capture(t)
		SetVerbose(true)

		Warn("embedding failed")

		assert.Equal(t, "[WARN] embedding failed\n", buf.String())
	})

	t.Run("section prints a header", func(t *testing.T) {
		buf := capture(t)
		SetVerbose(true)

		Section("Reconciliation")

		assert.Equal(t, "\n=== Reconciliation ===\n", buf.String())
	})

	t.Run("silent unless verbose", func(t *testing.T) {
		buf := capture(t)
		SetVerbose(false)

		Debug("hidden")
		Info("hidden")
		Warn("hidden")
		Section("hidden")

		assert.Zero(t, buf.Len())
	})
}

func TestConcurrentAccess(t *testing.T) {
	capture(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			SetVerbose(true)
			Debug("worker %d", n)
			IsVerbose()
			SetVerbose(false)
		}(i)
	}
	wg.Wait()
}
