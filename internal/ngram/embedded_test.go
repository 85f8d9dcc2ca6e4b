package ngram

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/cipherbreak/internal/alphabet"
)

func TestEmbeddedTables(t *testing.T) {
	minPatterns := map[int]int{1: alphabet.Size, 2: 600, 3: 9000, 4: 60000}
	for n := 1; n <= MaxEmbeddedN; n++ {
		m, err := Build(n, Embedded())
		require.NoError(t, err, "n=%d", n)
		assert.GreaterOrEqual(t, len(m.Scores), minPatterns[n], "n=%d", n)
		assert.Greater(t, m.Total, int64(3_000_000), "n=%d", n)
	}

	unigrams, err := Build(1, Embedded())
	require.NoError(t, err)
	for _, r := range alphabet.Upper {
		assert.Less(t, unigrams.Score(string(r)), unigrams.ScoreOther, "letter %c", r)
	}
	assert.Less(t, unigrams.Score("E"), unigrams.Score("Z"))

	_, err = Embedded().LoadFrequencies(MaxEmbeddedN + 1)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestEmbeddedRatesEnglishBelowGibberish(t *testing.T) {
	m, err := Build(3, Embedded())
	require.NoError(t, err)
	assert.Less(t, m.Rate("the dog and the fox ran over the hill"), m.Rate("xqzj kvwp qqzx jjvk wpqz xkqj vwzq"))
}

func TestEmbeddedSeparatesCaesarShifts(t *testing.T) {
	m, err := Build(4, Embedded())
	require.NoError(t, err)

	// Rare letters must not make correct text indistinguishable from wrong shifts.
	letters := alphabet.Indices("The lazy dozen zebras gazed at the frozen puzzle in amazement.")
	plain := m.RateLetters(letters)
	distinct := map[float64]bool{}
	for shift := 1; shift < alphabet.Size; shift++ {
		shifted := make([]byte, len(letters))
		for i, v := range letters {
			shifted[i] = byte(alphabet.Mod(int(v)+shift, alphabet.Size))
		}
		score := m.RateLetters(shifted)
		assert.Greater(t, score, plain+0.5, "shift %d", shift)
		distinct[score] = true
	}
	assert.Greater(t, len(distinct), 20)
}

func TestFSSource(t *testing.T) {
	fsys := fstest.MapFS{
		"tables/2GRAM.txt": {Data: []byte("TH 10\nhe 7\n")},
		"tables/3GRAM.txt": {Data: []byte("THE x\n")},
	}
	src := FSSource{FS: fsys, Dir: "tables"}

	counts, err := src.LoadFrequencies(2)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"TH": 10, "HE": 7}, counts)

	_, err = src.LoadFrequencies(3)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	_, err = src.LoadFrequencies(4)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}
