package cipher

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaesar(t *testing.T) {
	assert.Equal(t, "Spwwz Hzcwo", Caesar("Hello World", 11))
	assert.Equal(t, "Hello World", Caesar("Spwwz Hzcwo", -11))
	assert.Equal(t,
		"Trvjri Tzgyvi zj r dfefrcgyrsvkzt jlsjkzklkzfe tzgyvi",
		Caesar("Caesar Cipher is a monoalphabetic substitution cipher", 17))
}

func TestAffine(t *testing.T) {
	assert.Equal(t, "Qpaab Vbcag", Affine("Hello World", 9, 5))
	assert.Equal(t, "Hkkruz Drqgzm", Affine("Affine Cipher", 11, 7))

	plain, err := ReverseAffine("Qpaab Vbcag", 9, 5)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", plain)

	plain, err = ReverseAffine("Hkkruz Drqgzm", 11, 7)
	require.NoError(t, err)
	assert.Equal(t, "Affine Cipher", plain)
}

func TestReverseAffineRejectsNonInvertible(t *testing.T) {
	for _, a := range []int{0, 2, 13, 26} {
		_, err := ReverseAffine("Hello", a, 3)
		assert.ErrorIs(t, err, ErrInvalidKey, "a=%d", a)
	}
}

func TestScytale(t *testing.T) {
	out, err := Scytale("TranspositionCiphers", 5)
	require.NoError(t, err)
	assert.Equal(t, "TpiproohasneniCrstis", out)

	out, err = Scytale("AncientGreeks", 4)
	require.NoError(t, err)
	assert.Equal(t, "Aersnne_cte_iGk_", out)

	plain, err := ReverseScytale("TpiproohasneniCrstis", 5)
	require.NoError(t, err)
	assert.Equal(t, "TranspositionCiphers", plain)

	plain, err = ReverseScytale("Aersnne_cte_iGk_", 4)
	require.NoError(t, err)
	assert.Equal(t, "AncientGreeks", plain)
}

func TestScytaleRejectsBadColumns(t *testing.T) {
	_, err := Scytale("abc", 0)
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = ReverseScytale("abcdefg", 3)
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = ReverseScytale("abc", 4)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestVigenere(t *testing.T) {
	out, err := Vigenere("Attack at dawn", []int{11, 4, 12, 14, 13})
	require.NoError(t, err)
	assert.Equal(t, "Lxfopv ef rnhr", out)

	out, err = Vigenere("Interwoven Caesar ciphers", []int{21, 8, 6, 4, 13, 4, 17, 4})
	require.NoError(t, err)
	assert.Equal(t, "Dvzieafzzv Ierwrv xqvlrvj", out)

	plain, err := ReverseVigenere("Lxfopv ef rnhr", []int{11, 4, 12, 14, 13})
	require.NoError(t, err)
	assert.Equal(t, "Attack at dawn", plain)

	_, err = Vigenere("No shifts", nil)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestKeywordShifts(t *testing.T) {
	assert.Equal(t, []int{11, 4, 12, 14, 13}, KeywordShifts("Lemon"))
	assert.Equal(t, []int{21, 8, 6, 4, 13, 4, 17, 4}, KeywordShifts("Vigenere"))
}

func TestSubstitute(t *testing.T) {
	m, err := ParseMapping("H=A E=B L=C O=D")
	require.NoError(t, err)
	assert.Equal(t, "abccd", Substitute("Hello", m))

	m, err = ParseMapping("S=Q U=E B=T T=U I=A O=D N=G")
	require.NoError(t, err)
	assert.Equal(t, "qetquaueuadg", Substitute("Substitution", m))

	// unmapped letters stay upper case
	assert.Equal(t, "aBC, d!", Substitute("abc, d!", Mapping{0: 'A', 3: 'D'}))
}

func TestKeywordMapping(t *testing.T) {
	assert.Equal(t, "KEYWORDABCFGHIJLMNPQSTUVXZ", KeywordMapping("keyword").String())
	assert.Equal(t, "CRYPTOGAHBDEFIJKLMNQSUVWXZ", KeywordMapping("CRYPTOGRAPHY").String())
}

func TestMappingInverseRoundTrip(t *testing.T) {
	m := KeywordMapping("zebras")
	text := "The quick brown fox jumps over the lazy dog"
	enc := Substitute(text, m)
	dec := Substitute(enc, m.Inverse())
	assert.Equal(t, strings.ToLower(text), dec)
}

func TestMappingSwapReturnsCopy(t *testing.T) {
	m := IdentityMapping()
	swapped := m.Swap(0, 1)
	assert.Equal(t, byte('A'), m[0])
	assert.Equal(t, byte('B'), swapped[0])
	assert.Equal(t, byte('A'), swapped[1])
}

func TestHill(t *testing.T) {
	key, err := ParseHillKey("3,3;2,5")
	require.NoError(t, err)

	out, err := Hill("help", key, 'Z')
	require.NoError(t, err)
	assert.Equal(t, "HIAT", out)

	plain, err := ReverseHill(out, key)
	require.NoError(t, err)
	assert.Equal(t, "HELP", plain)
}

func TestHillRejectsBadKeys(t *testing.T) {
	_, err := ParseHillKey("1,2,3;4,5")
	assert.ErrorIs(t, err, ErrInvalidKey)

	singular, err := ParseHillKey("2,4;1,2")
	require.NoError(t, err)
	_, err = ReverseHill("ABCD", singular)
	assert.ErrorIs(t, err, ErrInvalidKey)

	evenDet, err := ParseHillKey("2,0;0,1")
	require.NoError(t, err)
	_, err = ReverseHill("ABCD", evenDet)
	assert.ErrorIs(t, err, ErrInvalidKey)

	key, err := ParseHillKey("3,3;2,5")
	require.NoError(t, err)
	_, err = ReverseHill("ABC", key)
	assert.True(t, errors.Is(err, ErrInvalidText))
}

func TestModularHelpers(t *testing.T) {
	assert.Equal(t, 4, GCD(16, 12))
	assert.Equal(t, 1, GCD(12, 13))

	gcd, x, y := ExtendedGCD(16, 12)
	assert.Equal(t, []int{4, 1, -1}, []int{gcd, x, y})
	gcd, x, y = ExtendedGCD(14, 8)
	assert.Equal(t, []int{2, -1, 2}, []int{gcd, x, y})

	_, ok := ModInverse(2, 26)
	assert.False(t, ok)
	inv, ok := ModInverse(15, 26)
	assert.True(t, ok)
	assert.Equal(t, 7, inv)
	inv, ok = ModInverse(5, 18)
	assert.True(t, ok)
	assert.Equal(t, 11, inv)

	assert.Equal(t, []int{1, 3, 5, 7, 9, 11, 15, 17, 19, 21, 23, 25}, AffineMultipliers())
	assert.Equal(t, []int{1, 2, 3, 4, 6, 12}, Divisors(12))
	assert.Equal(t, []int{1, 2, 4, 8, 16}, Divisors(16))
	assert.Nil(t, Divisors(0))
}

func TestNonLettersPreserved(t *testing.T) {
	text := "Hé, 42 ways: a-b_c!"
	shifts := []int{3, 1, 4}
	enc, err := Vigenere(text, shifts)
	require.NoError(t, err)
	for _, out := range []string{Caesar(text, 7), Affine(text, 5, 8), enc} {
		in, got := []rune(text), []rune(out)
		require.Len(t, got, len(in))
		for i, r := range in {
			if r >= 'a' && r <= 'z' {
				assert.True(t, got[i] >= 'a' && got[i] <= 'z')
				continue
			}
			if r >= 'A' && r <= 'Z' {
				assert.True(t, got[i] >= 'A' && got[i] <= 'Z')
				continue
			}
			assert.Equal(t, r, got[i])
		}
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	keys := map[string]string{
		"caesar":       "11",
		"affine":       "9,5",
		"scytale":      "4",
		"substitution": "QWERTYUIOPASDFGHJKLZXCVBNM",
		"keyword":      "secret",
		"vigenere":     "LEMON",
		"hill":         "3,3;2,5",
	}
	text := "Attackatdawn"
	for id, key := range keys {
		c, ok := Lookup(id)
		require.True(t, ok, id)
		enc, err := c.Encode(text, key)
		require.NoError(t, err, id)
		dec, err := c.Decode(enc, key)
		require.NoError(t, err, id)
		assert.Equal(t, strings.ToUpper(text), strings.ToUpper(dec), id)
	}
	assert.Len(t, All(), len(keys))
}

func TestRegistryRejectsBadKeys(t *testing.T) {
	c, _ := Lookup("affine")
	_, err := c.Encode("abc", "2,3")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = c.Decode("abc", "x")
	assert.ErrorIs(t, err, ErrInvalidKey)

	v, _ := Lookup("vigenere")
	_, err = v.Encode("abc", "123 !")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
