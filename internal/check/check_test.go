package check

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/cipherbreak/internal/corpus"
	"github.com/verte-zerg/cipherbreak/internal/model"
	"github.com/verte-zerg/cipherbreak/internal/ngram"
	"github.com/verte-zerg/cipherbreak/internal/solver"
)

func TestRunClassifiesSamples(t *testing.T) {
	runner := Runner{
		Deps:       solver.Deps{Models: ngram.NewCache(ngram.Embedded())},
		Paragraphs: corpus.Paragraphs(corpus.English()),
	}
	results, err := runner.Run(context.Background(), Options{
		Ciphers:    []string{"caesar", "affine"},
		Samples:    3,
		MinLetters: 200,
		Seed:       42,
		Parallel:   4,
	})
	require.NoError(t, err)
	require.Len(t, results, 6)
	for i, r := range results {
		want := "caesar"
		if i >= 3 {
			want = "affine"
		}
		assert.Equal(t, want, r.Cipher)
		assert.Equal(t, model.VerdictBest, r.Verdict(), "key %s", r.Key)
	}

	summaries, err := Summarize(results)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "affine", summaries[0].Cipher)
	assert.Equal(t, 3, summaries[1].Best)
}

func TestRunRejectsUnknownCipher(t *testing.T) {
	_, err := Runner{}.Run(context.Background(), Options{Ciphers: []string{"enigma"}, Samples: 1})
	assert.Error(t, err)
}

func TestRank(t *testing.T) {
	cands := []model.Candidate{{Plaintext: "xyz"}, {Plaintext: "Hello, world"}}
	assert.Equal(t, 2, Rank(cands, "HELLO WORLD!"))
	assert.Equal(t, 0, Rank(cands, "goodbye"))
	assert.Equal(t, 0, Rank(nil, "x"))
}

func TestSummarize(t *testing.T) {
	results := []model.CheckResult{
		{Cipher: "vigenere", Rank: 1, Duration: time.Second},
		{Cipher: "vigenere", Rank: 4, Duration: 3 * time.Second},
		{Cipher: "vigenere", Rank: 0, Duration: 2 * time.Second},
		{Cipher: "caesar", Rank: 1, Duration: time.Millisecond},
	}
	summaries, err := Summarize(results)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	caesar, vig := summaries[0], summaries[1]
	assert.Equal(t, "caesar", caesar.Cipher)
	assert.Equal(t, 1, caesar.Samples)
	assert.Equal(t, 1, caesar.Best)
	for _, d := range []time.Duration{caesar.Mean, caesar.Median, caesar.P90, caesar.Max} {
		assert.InDelta(t, float64(time.Millisecond), float64(d), 1)
	}

	assert.Equal(t, 3, vig.Samples)
	assert.Equal(t, 1, vig.Best)
	assert.Equal(t, 1, vig.Top)
	assert.Equal(t, 1, vig.Different)
	assert.Equal(t, 2*time.Second, vig.Mean)
	assert.Equal(t, 2*time.Second, vig.Median)
	assert.Equal(t, 3*time.Second, vig.Max)

	empty, err := Summarize(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
