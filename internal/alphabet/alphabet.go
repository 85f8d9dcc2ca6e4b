// Package alphabet provides ASCII letter helpers shared by ciphers and scorers.
package alphabet

import "strings"

// Size is the number of letters in the alphabet.
const Size = 26

// Upper lists the uppercase alphabet in order.
const Upper = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Base returns the code point of 'A' or 'a' for an ASCII letter and false otherwise.
func Base(r rune) (rune, bool) {
	switch {
	case r >= 'A' && r <= 'Z':
		return 'A', true
	case r >= 'a' && r <= 'z':
		return 'a', true
	default:
		return 0, false
	}
}

// IsLetter reports whether r is an ASCII letter.
func IsLetter(r rune) bool {
	_, ok := Base(r)
	return ok
}

// Mod returns the non-negative remainder of a divided by m.
func Mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// Shift moves an ASCII letter by k positions, wrapping within its case.
// Other runes are returned unchanged.
func Shift(r rune, k int) rune {
	base, ok := Base(r)
	if !ok {
		return r
	}
	return base + rune(Mod(int(r-base)+k, Size))
}

// LettersOnlyUpper strips everything except ASCII letters and upper-cases the rest.
func LettersOnlyUpper(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case ch >= 'A' && ch <= 'Z':
			b.WriteByte(ch)
		case ch >= 'a' && ch <= 'z':
			b.WriteByte(ch - 'a' + 'A')
		}
	}
	return b.String()
}

// Indices converts text to letter indices 0-25, dropping non-letters.
func Indices(text string) []byte {
	out := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case ch >= 'A' && ch <= 'Z':
			out = append(out, ch-'A')
		case ch >= 'a' && ch <= 'z':
			out = append(out, ch-'a')
		}
	}
	return out
}

// CountLetters returns the case-insensitive occurrence count of each letter.
func CountLetters(text string) [Size]int {
	var counts [Size]int
	for _, idx := range Indices(text) {
		counts[idx]++
	}
	return counts
}
