// Package ngram scores text against letter n-gram statistics of a reference corpus.
package ngram

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/verte-zerg/cipherbreak/internal/alphabet"
)

// maxDenseN is the largest n for which a dense lookup table is built (26^4 entries).
const maxDenseN = 4

// Model holds the negative log-probability of every observed n-gram. It is immutable.
type Model struct {
	// N is the pattern length.
	N int
	// Scores maps each observed pattern to -log10(count/total).
	Scores map[string]float64
	// ScoreOther is the score of an unseen pattern, -log10(1/total).
	ScoreOther float64
	// Average is the frequency-weighted mean score of the reference corpus.
	Average float64
	// Total is the number of patterns counted in the reference corpus.
	Total int64

	dense []float64
}

// New builds a model from raw pattern counts. Patterns must be n uppercase letters.
func New(n int, counts map[string]int64) (*Model, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: n must be at least 1, got %d", ErrDataUnavailable, n)
	}
	var total int64
	for pattern, count := range counts {
		if err := validatePattern(pattern, n); err != nil {
			return nil, err
		}
		if count <= 0 {
			return nil, fmt.Errorf("%w: non-positive count %d for %q", ErrDataUnavailable, count, pattern)
		}
		total += count
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: empty frequency table for n=%d", ErrDataUnavailable, n)
	}

	m := &Model{
		N:          n,
		Scores:     make(map[string]float64, len(counts)),
		ScoreOther: -math.Log10(1 / float64(total)),
		Total:      total,
	}
	scores := make([]float64, 0, len(counts))
	weights := make([]float64, 0, len(counts))
	for pattern, count := range counts {
		score := -math.Log10(float64(count) / float64(total))
		m.Scores[pattern] = score
		scores = append(scores, score)
		weights = append(weights, float64(count))
	}
	m.Average = stat.Mean(scores, weights)

	if n <= maxDenseN {
		m.dense = make([]float64, pow26(n))
		for i := range m.dense {
			m.dense[i] = m.ScoreOther
		}
		for pattern, score := range m.Scores {
			m.dense[code(pattern)] = score
		}
	}
	return m, nil
}

// Build loads the frequency table for n from src and builds a model.
func Build(n int, src Source) (*Model, error) {
	counts, err := src.LoadFrequencies(n)
	if err != nil {
		return nil, err
	}
	return New(n, counts)
}

// Score returns the score of a single pattern. Unseen patterns, including patterns of
// the wrong length, score ScoreOther.
func (m *Model) Score(pattern string) float64 {
	if score, ok := m.Scores[pattern]; ok {
		return score
	}
	return m.ScoreOther
}

// Rate measures how far the n-gram statistics of text are from the reference corpus.
// Only letters are considered. Lower is more English-like; text with fewer than N
// letters rates 0.
func (m *Model) Rate(text string) float64 {
	return m.RateLetters(alphabet.Indices(text))
}

// RateLetters is Rate for text already reduced to letter indices 0-25.
func (m *Model) RateLetters(letters []byte) float64 {
	if len(letters) < m.N {
		return 0
	}
	windows := len(letters) - m.N + 1
	var total float64
	if m.dense != nil {
		mod := pow26(m.N)
		c := 0
		for i := 0; i < m.N-1; i++ {
			c = c*alphabet.Size + int(letters[i])
		}
		for i := m.N - 1; i < len(letters); i++ {
			c = (c*alphabet.Size + int(letters[i])) % mod
			total += m.dense[c]
		}
	} else {
		upper := make([]byte, len(letters))
		for i, v := range letters {
			upper[i] = 'A' + v
		}
		text := string(upper)
		for i := 0; i < windows; i++ {
			total += m.Score(text[i : i+m.N])
		}
	}
	return math.Abs(m.Average - total/float64(windows))
}

func validatePattern(pattern string, n int) error {
	if len(pattern) != n {
		return fmt.Errorf("%w: pattern %q is not %d letters long", ErrDataUnavailable, pattern, n)
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] < 'A' || pattern[i] > 'Z' {
			return fmt.Errorf("%w: pattern %q contains a non-letter", ErrDataUnavailable, pattern)
		}
	}
	return nil
}

func pow26(n int) int {
	v := 1
	for i := 0; i < n; i++ {
		v *= alphabet.Size
	}
	return v
}

func code(pattern string) int {
	c := 0
	for i := 0; i < len(pattern); i++ {
		c = c*alphabet.Size + int(pattern[i]-'A')
	}
	return c
}
