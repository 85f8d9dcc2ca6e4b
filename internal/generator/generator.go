// Package generator builds random plaintext samples and keys for benchmarking solvers.
package generator

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/cipherbreak/internal/alphabet"
	"github.com/verte-zerg/cipherbreak/internal/cipher"
)

// Generator produces randomized samples and keys.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic Generator.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Sample joins consecutive paragraphs from a random starting point until the sample holds
// at least minLetters letters, wrapping around if needed. It returns "" when paragraphs
// is empty.
func (g *Generator) Sample(paragraphs []string, minLetters int) string {
	if len(paragraphs) == 0 {
		return ""
	}
	start := g.rnd.Intn(len(paragraphs))
	parts := []string{}
	letters := 0
	for i := 0; i < len(paragraphs) && (letters < minLetters || len(parts) == 0); i++ {
		p := paragraphs[(start+i)%len(paragraphs)]
		parts = append(parts, p)
		letters += len(alphabet.Indices(p))
	}
	return strings.Join(parts, "\n\n")
}

// Key returns a random textual key for the cipher, suitable for cipher.Cipher.Encode on a
// text of textLen runes.
func (g *Generator) Key(cipherID string, textLen int) (string, error) {
	switch cipherID {
	case "caesar":
		return strconv.Itoa(1 + g.rnd.Intn(alphabet.Size-1)), nil
	case "affine":
		units := cipher.AffineMultipliers()
		a := units[g.rnd.Intn(len(units))]
		return fmt.Sprintf("%d,%d", a, g.rnd.Intn(alphabet.Size)), nil
	case "scytale":
		if textLen < 4 {
			return "", fmt.Errorf("text too short for a scytale key")
		}
		return strconv.Itoa(2 + g.rnd.Intn(textLen/2-1)), nil
	case "substitution":
		var m cipher.Mapping
		for i, v := range g.rnd.Perm(alphabet.Size) {
			m[i] = byte('A' + v)
		}
		return m.String(), nil
	case "vigenere":
		return g.Word(3 + g.rnd.Intn(6)), nil
	default:
		return "", fmt.Errorf("no key generator for cipher %q", cipherID)
	}
}

// Word returns n random uppercase letters.
func (g *Generator) Word(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet.Upper[g.rnd.Intn(alphabet.Size)])
	}
	return b.String()
}
