package solver

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/verte-zerg/cipherbreak/internal/alphabet"
	"github.com/verte-zerg/cipherbreak/internal/cipher"
	"github.com/verte-zerg/cipherbreak/internal/model"
	"github.com/verte-zerg/cipherbreak/internal/ngram"
)

// Substitution recovers a monoalphabetic substitution key by hill climbing from a
// frequency-matched start, with random restarts when a climb stalls.
//
// Keys reported are encryption mappings (cipher.Mapping), usable directly with the
// substitution decoder.
type Substitution struct {
	Models  Models
	Options model.SubstitutionOptions
}

func (*Substitution) ID() string   { return "substitution" }
func (*Substitution) Name() string { return "Substitution Cipher" }

func (*Substitution) FormatKey(key any) string {
	if m, ok := key.(cipher.Mapping); ok {
		return m.String()
	}
	return fmt.Sprint(key)
}

// climber holds the decryption state of one run. dec maps cipher letter index to
// plaintext letter index.
type climber struct {
	text    string
	letters []byte
	buf     []byte
	model   *ngram.Model
	r       Reporter
}

func (c *climber) rate(dec [alphabet.Size]byte) float64 {
	for i, v := range c.letters {
		c.buf[i] = dec[v]
	}
	return c.model.RateLetters(c.buf)
}

func (c *climber) report(dec [alphabet.Size]byte, score float64) {
	var decrypt cipher.Mapping
	for i, v := range dec {
		decrypt[i] = 'A' + v
	}
	c.r.ScoredCandidate(decrypt.Inverse(), cipher.Substitute(c.text, decrypt), score)
}

func (s *Substitution) Run(ctx context.Context, ciphertext string, r Reporter) error {
	opts := s.Options
	defaults := model.DefaultSubstitutionOptions()
	if opts.MaxRestarts <= 0 {
		opts.MaxRestarts = defaults.MaxRestarts
	}
	if opts.MaxSweeps <= 0 {
		opts.MaxSweeps = defaults.MaxSweeps
	}
	if opts.NgramSize <= 0 {
		opts.NgramSize = defaults.NgramSize
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	r.Indeterminate()
	unigrams, err := s.Models.Get(1)
	if err != nil {
		return fmt.Errorf("failed to load letter frequencies: %w", err)
	}
	scorer, err := s.Models.Get(opts.NgramSize)
	if err != nil {
		return fmt.Errorf("failed to load %d-gram model: %w", opts.NgramSize, err)
	}

	letters := alphabet.Indices(ciphertext)
	c := &climber{
		text:    ciphertext,
		letters: letters,
		buf:     make([]byte, len(letters)),
		model:   scorer,
		r:       r,
	}
	rnd := rand.New(rand.NewSource(seed))

	dec := StartMapping(ciphertext, unigrams)
	score := c.rate(dec)
	c.report(dec, score)

	for restart := 0; restart < opts.MaxRestarts; restart++ {
		converged := false
		for sweep := 0; sweep < opts.MaxSweeps; sweep++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			bestScore, bestI, bestJ := score, -1, -1
			for i := 0; i < alphabet.Size; i++ {
				for j := i + 1; j < alphabet.Size; j++ {
					next := dec
					next[i], next[j] = next[j], next[i]
					nextScore := c.rate(next)
					c.report(next, nextScore)
					if nextScore < bestScore {
						bestScore, bestI, bestJ = nextScore, i, j
					}
				}
			}
			if bestI < 0 {
				converged = true
				break
			}
			dec[bestI], dec[bestJ] = dec[bestJ], dec[bestI]
			score = bestScore
		}
		// A climb cut short by MaxSweeps is never accepted.
		if converged && score < opts.Threshold {
			return nil
		}
		rnd.Shuffle(len(dec), func(i, j int) { dec[i], dec[j] = dec[j], dec[i] })
		score = c.rate(dec)
		c.report(dec, score)
	}
	return nil
}

// StartMapping pairs the ciphertext's letters, most frequent first, with the model's
// letters, most frequent first. Ties keep alphabetical order. The result maps cipher
// letter index to plaintext letter index.
func StartMapping(ciphertext string, unigrams *ngram.Model) [alphabet.Size]byte {
	counts := alphabet.CountLetters(ciphertext)
	cipherOrder := make([]int, alphabet.Size)
	realOrder := make([]int, alphabet.Size)
	for i := range cipherOrder {
		cipherOrder[i] = i
		realOrder[i] = i
	}
	sort.SliceStable(cipherOrder, func(a, b int) bool {
		return counts[cipherOrder[a]] > counts[cipherOrder[b]]
	})
	sort.SliceStable(realOrder, func(a, b int) bool {
		return unigrams.Score(string(rune('A'+realOrder[a]))) < unigrams.Score(string(rune('A'+realOrder[b])))
	})

	var dec [alphabet.Size]byte
	for rank, idx := range cipherOrder {
		dec[idx] = byte(realOrder[rank])
	}
	return dec
}
