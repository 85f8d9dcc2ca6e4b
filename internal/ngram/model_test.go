package ngram

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const training = "The quick brown fox jumps over the lazy dog while the cat sleeps by the warm fire. " +
	"Then the dog wakes and the fox runs into the dark green forest behind the old house."

func TestNewComputesScores(t *testing.T) {
	m, err := New(1, map[string]int64{"A": 3, "B": 1})
	require.NoError(t, err)

	assert.Equal(t, int64(4), m.Total)
	assert.InDelta(t, -math.Log10(0.75), m.Score("A"), 1e-12)
	assert.InDelta(t, -math.Log10(0.25), m.Score("B"), 1e-12)
	assert.InDelta(t, -math.Log10(0.25), m.ScoreOther, 1e-12)
	assert.Equal(t, m.ScoreOther, m.Score("Z"))

	want := (3*-math.Log10(0.75) + 1*-math.Log10(0.25)) / 4
	assert.InDelta(t, want, m.Average, 1e-12)
}

func TestNewRejectsMalformedCounts(t *testing.T) {
	cases := map[string]map[string]int64{
		"wrong length": {"AB": 1, "C": 2},
		"non letter":   {"A1": 1},
		"zero count":   {"AB": 0},
		"empty":        {},
	}
	for name, counts := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(2, counts)
			assert.ErrorIs(t, err, ErrDataUnavailable)
		})
	}
}

func TestRateShortTextIsZero(t *testing.T) {
	for n := 1; n <= 5; n++ {
		m, err := Build(n, CorpusSource{Text: training})
		require.NoError(t, err)
		assert.Zero(t, m.Rate(strings.Repeat("x", n-1)), "n=%d", n)
		assert.Zero(t, m.Rate("  ,. 12"), "n=%d", n)
	}
}

func TestRateTrainingCorpusIsNearZero(t *testing.T) {
	for n := 1; n <= 5; n++ {
		m, err := Build(n, CorpusSource{Text: training})
		require.NoError(t, err)
		assert.InDelta(t, 0, m.Rate(training), 1e-9, "n=%d", n)
	}
}

func TestRateIsFiniteAndNonNegative(t *testing.T) {
	m, err := Build(3, CorpusSource{Text: training})
	require.NoError(t, err)

	for _, text := range []string{"qqqqzzzzxxxx", "the fox", "Hello, World!", "ABC"} {
		r := m.Rate(text)
		assert.False(t, math.IsNaN(r) || math.IsInf(r, 0), text)
		assert.GreaterOrEqual(t, r, 0.0, text)
	}
}

func TestRateDenseMatchesSparse(t *testing.T) {
	m, err := Build(4, CorpusSource{Text: training})
	require.NoError(t, err)
	require.NotNil(t, m.dense)

	text := "the brown dog sleeps by the forest"
	letters := strings.ToUpper(strings.ReplaceAll(text, " ", ""))
	windows := len(letters) - 3
	var total float64
	for i := 0; i < windows; i++ {
		total += m.Score(letters[i : i+4])
	}
	assert.InDelta(t, math.Abs(m.Average-total/float64(windows)), m.Rate(text), 1e-9)
}

func TestCountSpansNonLetters(t *testing.T) {
	counts, err := Count(strings.NewReader("ab, c\nAB"), 2)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"AB": 2, "BC": 1, "CA": 1}, counts)

	_, err = Count(strings.NewReader("abc"), 0)
	assert.Error(t, err)
}

func TestWriteTableRoundTrip(t *testing.T) {
	dir := t.TempDir()
	counts, err := Count(strings.NewReader(training), 3)
	require.NoError(t, err)

	require.NoError(t, WriteTable(TablePath(dir, 3), counts))

	loaded, err := DirSource{Dir: dir}.LoadFrequencies(3)
	require.NoError(t, err)
	assert.Equal(t, counts, loaded)

	data, err := os.ReadFile(filepath.Join(dir, "3GRAM.txt"))
	require.NoError(t, err)
	first := strings.SplitN(string(data), "\n", 2)[0]
	assert.Equal(t, "THE", strings.Fields(first)[0])
}

func TestDirSourceErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := DirSource{Dir: dir}.LoadFrequencies(2)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	_, err = DirSource{}.LoadFrequencies(2)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	for _, content := range []string{"ABC 4\n", "AB\n", "AB x\n", "A1 3\n", "AB -1\n", "\n\n"} {
		require.NoError(t, os.WriteFile(TablePath(dir, 2), []byte(content), 0o644))
		_, err := DirSource{Dir: dir}.LoadFrequencies(2)
		assert.ErrorIs(t, err, ErrDataUnavailable, "content %q", content)
	}

	require.NoError(t, os.WriteFile(TablePath(dir, 2), []byte("th 10\nHE 7\n\nTH 1\n"), 0o644))
	counts, err := DirSource{Dir: dir}.LoadFrequencies(2)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"TH": 11, "HE": 7}, counts)
}

type failingSource struct{ err error }

func (f failingSource) LoadFrequencies(int) (map[string]int64, error) { return nil, f.err }

func TestFallbackSource(t *testing.T) {
	fixed := MapSource{1: {"E": 5}}
	src := FallbackSource{DirSource{Dir: t.TempDir()}, fixed}
	counts, err := src.LoadFrequencies(1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"E": 5}, counts)

	_, err = src.LoadFrequencies(2)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	boom := errors.New("boom")
	_, err = FallbackSource{failingSource{boom}, fixed}.LoadFrequencies(1)
	assert.ErrorIs(t, err, boom)

	_, err = FallbackSource{}.LoadFrequencies(1)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

type countingSource struct {
	calls atomic.Int32
	inner Source
}

func (c *countingSource) LoadFrequencies(n int) (map[string]int64, error) {
	c.calls.Add(1)
	return c.inner.LoadFrequencies(n)
}

func TestCacheBuildsOncePerN(t *testing.T) {
	src := &countingSource{inner: CorpusSource{Text: training}}
	cache := NewCache(src)

	var wg sync.WaitGroup
	models := make([]*Model, 16)
	for i := range models {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := cache.Get(2)
			if err == nil {
				models[i] = m
			}
		}(i)
	}
	wg.Wait()

	for _, m := range models {
		require.NotNil(t, m)
		assert.Same(t, models[0], m)
	}
	assert.Equal(t, int32(1), src.calls.Load())

	_, err := cache.Get(3)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCacheDoesNotKeepFailures(t *testing.T) {
	src := &countingSource{inner: MapSource{}}
	cache := NewCache(src)

	_, err := cache.Get(2)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	_, err = cache.Rate("hello", 2)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.Equal(t, int32(2), src.calls.Load())
}
