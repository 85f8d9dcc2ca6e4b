package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/cipherbreak/internal/alphabet"
)

func TestEnglishIsSubstantial(t *testing.T) {
	letters := alphabet.LettersOnlyUpper(English())
	assert.Greater(t, len(letters), 10000)

	counts := alphabet.CountLetters(English())
	for i, c := range counts {
		assert.Positive(t, c, "letter %c missing", 'A'+i)
	}
	assert.Greater(t, len(Paragraphs(English())), 10)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("first"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("second"), 0o644))

	text, err := Load(a, b)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", text)

	_, err = Load()
	assert.Error(t, err)
	_, err = Load(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("123 ..."), 0o644))
	_, err = Load(empty)
	assert.Error(t, err)
}

func TestParagraphs(t *testing.T) {
	assert.Equal(t, []string{"one", "two lines\nhere"}, Paragraphs("\n\none\n\n\n\ntwo lines\nhere\n"))
}
