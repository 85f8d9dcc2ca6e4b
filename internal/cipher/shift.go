package cipher

import (
	"fmt"
	"strings"

	"github.com/verte-zerg/cipherbreak/internal/alphabet"
)

// AffineKey is the (a, b) pair of the affine cipher.
type AffineKey struct {
	A int `json:"a" yaml:"a"`
	B int `json:"b" yaml:"b"`
}

func (k AffineKey) String() string {
	return fmt.Sprintf("a=%d b=%d", k.A, k.B)
}

// Caesar shifts every letter by shift positions. Decoding is Caesar(text, -shift).
func Caesar(text string, shift int) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		b.WriteRune(alphabet.Shift(r, shift))
	}
	return b.String()
}

// Affine maps each letter x to a*x + b (mod 26).
func Affine(text string, a, b int) string {
	var out strings.Builder
	out.Grow(len(text))
	for _, r := range text {
		base, ok := alphabet.Base(r)
		if !ok {
			out.WriteRune(r)
			continue
		}
		idx := int(r - base)
		out.WriteRune(base + rune(alphabet.Mod(idx*a+b, alphabet.Size)))
	}
	return out.String()
}

// ReverseAffine undoes Affine. It fails when a has no inverse modulo 26.
func ReverseAffine(text string, a, b int) (string, error) {
	inv, ok := ModInverse(a, alphabet.Size)
	if !ok {
		return "", fmt.Errorf("%w: a=%d is not coprime with 26", ErrInvalidKey, a)
	}
	var out strings.Builder
	out.Grow(len(text))
	for _, r := range text {
		base, ok := alphabet.Base(r)
		if !ok {
			out.WriteRune(r)
			continue
		}
		idx := int(r - base)
		out.WriteRune(base + rune(alphabet.Mod((idx-b)*inv, alphabet.Size)))
	}
	return out.String(), nil
}

// Vigenere shifts letters by a repeating sequence of shifts. Only letters consume a shift.
func Vigenere(text string, shifts []int) (string, error) {
	if len(shifts) == 0 {
		return "", fmt.Errorf("%w: at least one shift is required", ErrInvalidKey)
	}
	var out strings.Builder
	out.Grow(len(text))
	pos := 0
	for _, r := range text {
		if !alphabet.IsLetter(r) {
			out.WriteRune(r)
			continue
		}
		out.WriteRune(alphabet.Shift(r, shifts[pos]))
		pos = (pos + 1) % len(shifts)
	}
	return out.String(), nil
}

// ReverseVigenere undoes Vigenere by negating every shift.
func ReverseVigenere(text string, shifts []int) (string, error) {
	negated := make([]int, len(shifts))
	for i, s := range shifts {
		negated[i] = -s
	}
	return Vigenere(text, negated)
}

// KeywordShifts converts a keyword into shifts, A=0 … Z=25. Non-letters are ignored.
func KeywordShifts(keyword string) []int {
	idx := alphabet.Indices(keyword)
	shifts := make([]int, len(idx))
	for i, v := range idx {
		shifts[i] = int(v)
	}
	return shifts
}
