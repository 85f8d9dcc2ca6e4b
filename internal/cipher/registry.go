package cipher

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/verte-zerg/cipherbreak/internal/alphabet"
)

// Cipher is a named transform pair that takes keys in their textual form.
type Cipher struct {
	ID      string
	Name    string
	KeyHelp string
	encode  func(text, key string) (string, error)
	decode  func(text, key string) (string, error)
}

// Encode enciphers text with a textual key.
func (c Cipher) Encode(text, key string) (string, error) {
	return c.encode(text, key)
}

// Decode deciphers text with a textual key.
func (c Cipher) Decode(text, key string) (string, error) {
	return c.decode(text, key)
}

var registry = map[string]Cipher{
	"caesar": {
		ID:      "caesar",
		Name:    "Caesar Cipher",
		KeyHelp: "shift, e.g. 11",
		encode: func(text, key string) (string, error) {
			shift, err := ParseInt(key)
			if err != nil {
				return "", err
			}
			return Caesar(text, shift), nil
		},
		decode: func(text, key string) (string, error) {
			shift, err := ParseInt(key)
			if err != nil {
				return "", err
			}
			return Caesar(text, -shift), nil
		},
	},
	"affine": {
		ID:      "affine",
		Name:    "Affine Cipher",
		KeyHelp: "a,b with a coprime to 26, e.g. 9,5",
		encode: func(text, key string) (string, error) {
			k, err := ParseAffineKey(key)
			if err != nil {
				return "", err
			}
			if GCD(k.A, alphabet.Size) != 1 {
				return "", fmt.Errorf("%w: a=%d is not coprime with 26", ErrInvalidKey, k.A)
			}
			return Affine(text, k.A, k.B), nil
		},
		decode: func(text, key string) (string, error) {
			k, err := ParseAffineKey(key)
			if err != nil {
				return "", err
			}
			return ReverseAffine(text, k.A, k.B)
		},
	},
	"scytale": {
		ID:      "scytale",
		Name:    "Scytale Cipher",
		KeyHelp: "column count, e.g. 5",
		encode: func(text, key string) (string, error) {
			columns, err := ParseInt(key)
			if err != nil {
				return "", err
			}
			return Scytale(text, columns)
		},
		decode: func(text, key string) (string, error) {
			columns, err := ParseInt(key)
			if err != nil {
				return "", err
			}
			return ReverseScytale(text, columns)
		},
	},
	"substitution": {
		ID:      "substitution",
		Name:    "Substitution Cipher",
		KeyHelp: "26 letters for A-Z or pairs like A=Q B=W",
		encode: func(text, key string) (string, error) {
			m, err := ParseMapping(key)
			if err != nil {
				return "", err
			}
			return Substitute(text, m), nil
		},
		decode: func(text, key string) (string, error) {
			m, err := ParseMapping(key)
			if err != nil {
				return "", err
			}
			return Substitute(text, m.Inverse()), nil
		},
	},
	"keyword": {
		ID:      "keyword",
		Name:    "Keyword Cipher",
		KeyHelp: "keyword, e.g. CRYPTOGRAPHY",
		encode: func(text, key string) (string, error) {
			return Substitute(text, KeywordMapping(key)), nil
		},
		decode: func(text, key string) (string, error) {
			return Substitute(text, KeywordMapping(key).Inverse()), nil
		},
	},
	"vigenere": {
		ID:      "vigenere",
		Name:    "Vigenère Cipher",
		KeyHelp: "keyword or comma separated shifts, e.g. LEMON or 11,4,12",
		encode: func(text, key string) (string, error) {
			shifts, err := ParseShifts(key)
			if err != nil {
				return "", err
			}
			return Vigenere(text, shifts)
		},
		decode: func(text, key string) (string, error) {
			shifts, err := ParseShifts(key)
			if err != nil {
				return "", err
			}
			return ReverseVigenere(text, shifts)
		},
	},
	"hill": {
		ID:      "hill",
		Name:    "Hill Cipher",
		KeyHelp: "square matrix rows separated by ';', e.g. 3,3;2,5",
		encode: func(text, key string) (string, error) {
			k, err := ParseHillKey(key)
			if err != nil {
				return "", err
			}
			return Hill(text, k, 'Z')
		},
		decode: func(text, key string) (string, error) {
			k, err := ParseHillKey(key)
			if err != nil {
				return "", err
			}
			return ReverseHill(text, k)
		},
	},
}

// Lookup returns the cipher registered under id.
func Lookup(id string) (Cipher, bool) {
	c, ok := registry[strings.ToLower(strings.TrimSpace(id))]
	return c, ok
}

// All returns every registered cipher sorted by id.
func All() []Cipher {
	out := make([]Cipher, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ParseInt parses a single integer key.
func ParseInt(key string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(key))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidKey, key)
	}
	return v, nil
}

// ParseAffineKey reads "a,b" or "a b".
func ParseAffineKey(key string) (AffineKey, error) {
	fields := strings.FieldsFunc(key, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) != 2 {
		return AffineKey{}, fmt.Errorf("%w: expected a,b", ErrInvalidKey)
	}
	a, err := ParseInt(fields[0])
	if err != nil {
		return AffineKey{}, err
	}
	b, err := ParseInt(fields[1])
	if err != nil {
		return AffineKey{}, err
	}
	return AffineKey{A: a, B: b}, nil
}

// ParseShifts reads either a keyword or a comma separated list of integer shifts.
func ParseShifts(key string) ([]int, error) {
	key = strings.TrimSpace(key)
	if strings.ContainsAny(key, "0123456789") {
		var shifts []int
		for _, field := range strings.Split(key, ",") {
			v, err := ParseInt(field)
			if err != nil {
				return nil, err
			}
			shifts = append(shifts, v)
		}
		return shifts, nil
	}
	shifts := KeywordShifts(key)
	if len(shifts) == 0 {
		return nil, fmt.Errorf("%w: keyword has no letters", ErrInvalidKey)
	}
	return shifts, nil
}
