package cli

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSnippet(t *testing.T) {
	t.Run("keeps short content intact", func(t *testing.T) {
		assert.Equal(t, "short line", snippet("short line", 160))
	})

	t.Run("stops at the first newline", func(t *testing.T) {
		assert.Equal(t, "first", snippet("first\nsecond\nthird", 160))
	})

	t.Run("truncates long content with an ellipsis", func(t *testing.T) {
		long := strings.Repeat("a", 200)

		got := snippet(long, 160)

		assert.Len(t, got, 163)
		assert.True(t, strings.HasSuffix(got, "..."))
	})

	t.Run("never cuts a rune in half", func(t *testing.T) {
		// "é" is two bytes, so a byte limit of 5 lands mid-rune.
		got := snippet(strings.Repeat("é", 10), 5)

		assert.True(t, utf8.ValidString(got))
		assert.Equal(t, "éé...", got)
	})

	t.Run("truncation on a boundary keeps the full rune", func(t *testing.T) {
		got := snippet(strings.Repeat("é", 10), 6)

		assert.True(t, utf8.ValidString(got))
		assert.Equal(t, "ééé...", got)
	})
}
