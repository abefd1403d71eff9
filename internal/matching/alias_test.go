package matching

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex() *AliasIndex {
	return NewAliasIndex(map[string][]string{
		"JavaScript": {"JS", "js", "ジャバスクリプト"},
		"Python":     {"python", "パイソン"},
		"AWS":        {"Amazon Web Services"},
	})
}

func TestNewAliasIndex(t *testing.T) {
	idx := testIndex()

	assert.Equal(t, 3, idx.Size())

	t.Run("canonical lookup is case insensitive", func(t *testing.T) {
		for _, form := range []string{"JS", "js", "Js", "javascript", "ジャバスクリプト"} {
			name, ok := idx.Canonical(form)
			require.True(t, ok, "form %q should resolve", form)
			assert.Equal(t, "JavaScript", name)
		}
	})

	t.Run("canonical lookup trims whitespace", func(t *testing.T) {
		name, ok := idx.Canonical("  python ")
		require.True(t, ok)
		assert.Equal(t, "Python", name)
	})

	t.Run("unknown form misses", func(t *testing.T) {
		_, ok := idx.Canonical("COBOL")
		assert.False(t, ok)
	})

	t.Run("surface forms include canonical name", func(t *testing.T) {
		forms := idx.SurfaceForms("JavaScript")
		assert.Contains(t, forms, "JavaScript")
		assert.Contains(t, forms, "JS")
	})

	t.Run("surface forms of unknown skill are the skill itself", func(t *testing.T) {
		assert.Equal(t, []string{"COBOL"}, idx.SurfaceForms("COBOL"))
	})

	t.Run("terms are lowercased and sorted", func(t *testing.T) {
		terms := idx.Terms()
		require.NotEmpty(t, terms)
		assert.IsIncreasing(t, terms)
		assert.Contains(t, terms, "javascript")
		assert.Contains(t, terms, "amazon web services")
	})
}

func TestLoadAliasIndex(t *testing.T) {
	t.Run("loads a valid dictionary file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "aliases.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"JavaScript": ["JS"]}`), 0o644))

		idx, err := LoadAliasIndex(path)
		require.NoError(t, err)
		assert.Equal(t, 1, idx.Size())
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := LoadAliasIndex(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.json")
		require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))

		_, err := LoadAliasIndex(path)
		assert.Error(t, err)
	})
}
