package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	idx := testIndex()

	t.Run("aliases collapse to the canonical name", func(t *testing.T) {
		got := idx.Normalize([]string{"JS", "python"})
		assert.Equal(t, []string{"JavaScript", "Python"}, got)
	})

	t.Run("alias and canonical name deduplicate", func(t *testing.T) {
		got := idx.Normalize([]string{"JS", "JavaScript", "js"})
		assert.Equal(t, []string{"JavaScript"}, got)
	})

	t.Run("unknown skills pass through unchanged", func(t *testing.T) {
		got := idx.Normalize([]string{"COBOL", "JS"})
		assert.Equal(t, []string{"COBOL", "JavaScript"}, got)
	})

	t.Run("whitespace and empty entries are dropped", func(t *testing.T) {
		got := idx.Normalize([]string{"  js  ", "", "   "})
		assert.Equal(t, []string{"JavaScript"}, got)
	})

	t.Run("idempotent on its own output", func(t *testing.T) {
		once := idx.Normalize([]string{"JS", "パイソン", "COBOL"})
		twice := idx.Normalize(once)
		assert.Equal(t, once, twice)
	})

	t.Run("output order is deterministic regardless of input order", func(t *testing.T) {
		a := idx.Normalize([]string{"python", "JS", "AWS"})
		b := idx.Normalize([]string{"AWS", "js", "Python"})
		assert.Equal(t, a, b)
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, idx.Normalize(nil))
	})
}
