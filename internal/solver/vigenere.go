package solver

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/verte-zerg/cipherbreak/internal/alphabet"
	"github.com/verte-zerg/cipherbreak/internal/cipher"
)

// MaxVigenereKeyLength bounds the key lengths tried (exclusive).
const MaxVigenereKeyLength = 50

// Vigenere finds the best key of every plausible length using bigram statistics of
// adjacent key positions. Keys are keyword strings.
type Vigenere struct {
	Models Models
}

func (*Vigenere) ID() string   { return "vigenere" }
func (*Vigenere) Name() string { return "Vigenère Cipher" }

func (*Vigenere) FormatKey(key any) string {
	return fmt.Sprint(key)
}

func (v *Vigenere) Run(ctx context.Context, ciphertext string, r Reporter) error {
	letters := alphabet.Indices(ciphertext)
	maxLen := min(MaxVigenereKeyLength, len(letters))
	r.TotalPossibilities(max(0, maxLen-2))
	if maxLen <= 2 {
		return nil
	}

	bigrams, err := v.Models.Get(2)
	if err != nil {
		return fmt.Errorf("failed to load bigram model: %w", err)
	}
	var table [alphabet.Size][alphabet.Size]float64
	for a := 0; a < alphabet.Size; a++ {
		for b := 0; b < alphabet.Size; b++ {
			table[a][b] = bigrams.Score(string([]byte{byte('A' + a), byte('A' + b)}))
		}
	}

	// shifted[s][i] is letter i decrypted with shift s.
	var shifted [alphabet.Size][]byte
	for s := range shifted {
		shifted[s] = make([]byte, len(letters))
		for i, l := range letters {
			shifted[s][i] = byte(alphabet.Mod(int(l)-s, alphabet.Size))
		}
	}

	found := map[string]bool{}
	for length := 2; length < maxLen; length++ {
		key, err := bestKey(ctx, letters, &shifted, &table, length)
		if err != nil {
			return err
		}
		if length%2 == 0 {
			half := key[:length/2]
			if half == key[length/2:] && found[half] {
				return nil
			}
		}
		found[key] = true
		plain, err := cipher.ReverseVigenere(ciphertext, cipher.KeywordShifts(key))
		if err != nil {
			return err
		}
		if err := r.Candidate(key, plain); err != nil {
			return err
		}
	}
	return nil
}

type vote struct {
	shift int
	score float64
}

// bestKey picks, for each position p, the shift pair for (p, p+1) whose decryption gives
// the most probable bigrams, then resolves each position from its two votes.
func bestKey(ctx context.Context, letters []byte, shifted *[alphabet.Size][]byte, table *[alphabet.Size][alphabet.Size]float64, length int) (string, error) {
	votes := make([][]vote, length)
	for p := 0; p < length; p++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		best := vote{score: math.Inf(1)}
		bestNext := 0
		for a := 0; a < alphabet.Size; a++ {
			sa := shifted[a]
			for b := 0; b < alphabet.Size; b++ {
				sb := shifted[b]
				total := 0.0
				count := 0
				for i := p; i < len(letters)-1; i += length {
					total += table[sa[i]][sb[i+1]]
					count++
				}
				if count == 0 {
					continue
				}
				if avg := total / float64(count); avg < best.score {
					best = vote{shift: a, score: avg}
					bestNext = b
				}
			}
		}
		votes[p] = append(votes[p], best)
		q := (p + 1) % length
		votes[q] = append(votes[q], vote{shift: bestNext, score: best.score})
	}

	var key strings.Builder
	key.Grow(length)
	for _, vs := range votes {
		pick := vs[0]
		for _, v := range vs[1:] {
			if v.score < pick.score {
				pick = v
			}
		}
		key.WriteByte(byte('A' + pick.shift))
	}
	return key.String(), nil
}
