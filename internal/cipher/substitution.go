package cipher

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/verte-zerg/cipherbreak/internal/alphabet"
)

// Mapping is a one-directional letter substitution indexed by input letter (0 = A).
// Values are uppercase letters; a zero value leaves the letter unmapped.
// Mapping is a value type, so every modification produces an independent copy.
type Mapping [alphabet.Size]byte

// IdentityMapping maps every letter to itself.
func IdentityMapping() Mapping {
	var m Mapping
	for i := range m {
		m[i] = byte('A' + i)
	}
	return m
}

// Swap returns a copy of m with the outputs of letters i and j exchanged.
func (m Mapping) Swap(i, j int) Mapping {
	m[i], m[j] = m[j], m[i]
	return m
}

// Complete reports whether every letter is mapped.
func (m Mapping) Complete() bool {
	for _, v := range m {
		if v == 0 {
			return false
		}
	}
	return true
}

// Inverse returns the reverse mapping. Letters mapped more than once keep the last source.
func (m Mapping) Inverse() Mapping {
	var inv Mapping
	for i, v := range m {
		if v == 0 {
			continue
		}
		inv[v-'A'] = byte('A' + i)
	}
	return inv
}

// String renders the outputs for A…Z, using '.' for unmapped letters.
func (m Mapping) String() string {
	var b strings.Builder
	b.Grow(alphabet.Size)
	for _, v := range m {
		if v == 0 {
			b.WriteByte('.')
			continue
		}
		b.WriteByte(v)
	}
	return b.String()
}

// Substitute applies the mapping. The input is upper-cased first; mapped letters are
// written in lower case and unmapped letters stay upper case, so partially applied keys
// remain visible in the output.
func Substitute(text string, m Mapping) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		base, ok := alphabet.Base(r)
		if !ok {
			b.WriteRune(r)
			continue
		}
		idx := r - base
		if v := m[idx]; v != 0 {
			b.WriteByte(v - 'A' + 'a')
			continue
		}
		b.WriteByte(byte('A' + idx))
	}
	return b.String()
}

// KeywordMapping builds a substitution alphabet: the keyword's distinct letters first,
// then the remaining letters in alphabetical order.
func KeywordMapping(keyword string) Mapping {
	var m Mapping
	var used [alphabet.Size]bool
	next := 0
	for _, idx := range alphabet.Indices(keyword) {
		if used[idx] {
			continue
		}
		used[idx] = true
		m[next] = 'A' + idx
		next++
	}
	for i := 0; i < alphabet.Size; i++ {
		if used[i] {
			continue
		}
		m[next] = byte('A' + i)
		next++
	}
	return m
}

var pairPattern = regexp.MustCompile(`([A-Z]+)=([A-Z]+)`)

// ParseMapping reads either 26 letters (outputs for A…Z, '.' for unmapped) or a list
// of pairs such as "A=Q B=W" or "AB=QW".
func ParseMapping(key string) (Mapping, error) {
	var m Mapping
	upper := strings.ToUpper(strings.TrimSpace(key))
	if len(upper) == alphabet.Size && !strings.Contains(upper, "=") {
		for i := 0; i < alphabet.Size; i++ {
			ch := upper[i]
			switch {
			case ch == '.':
				continue
			case ch >= 'A' && ch <= 'Z':
				m[i] = ch
			default:
				return Mapping{}, fmt.Errorf("%w: %q is not a letter", ErrInvalidKey, ch)
			}
		}
		return m, nil
	}

	pairs := pairPattern.FindAllStringSubmatch(upper, -1)
	if len(pairs) == 0 {
		return Mapping{}, fmt.Errorf("%w: expected 26 letters or pairs like A=B", ErrInvalidKey)
	}
	for _, p := range pairs {
		from, to := p[1], p[2]
		if len(from) != len(to) {
			return Mapping{}, fmt.Errorf("%w: mismatched pair %s", ErrInvalidKey, p[0])
		}
		for i := 0; i < len(from); i++ {
			m[from[i]-'A'] = to[i]
		}
	}
	return m, nil
}
