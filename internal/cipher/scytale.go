package cipher

import (
	"fmt"
	"strings"
)

// Filler pads scytale messages to a whole number of rows.
const Filler = '_'

// Scytale writes text into the given number of columns and reads it column by column.
// The text is padded with Filler until its length is a multiple of columns.
func Scytale(text string, columns int) (string, error) {
	if columns <= 0 {
		return "", fmt.Errorf("%w: column count must be positive, got %d", ErrInvalidKey, columns)
	}
	runes := []rune(text)
	for len(runes)%columns != 0 {
		runes = append(runes, Filler)
	}
	return transpose(runes, columns), nil
}

// ReverseScytale undoes Scytale and strips the filler. The ciphertext length must be a
// multiple of columns, otherwise no exact un-padding exists.
func ReverseScytale(text string, columns int) (string, error) {
	runes := []rune(text)
	if columns <= 0 || columns > len(runes) {
		return "", fmt.Errorf("%w: column count %d does not fit a text of length %d", ErrInvalidKey, columns, len(runes))
	}
	if len(runes)%columns != 0 {
		return "", fmt.Errorf("%w: text length %d is not a multiple of %d columns", ErrInvalidKey, len(runes), columns)
	}
	out := transpose(runes, len(runes)/columns)
	return strings.ReplaceAll(out, string(Filler), ""), nil
}

// transpose assumes len(runes) is a multiple of columns.
func transpose(runes []rune, columns int) string {
	var b strings.Builder
	b.Grow(len(runes))
	for i := 0; i < columns; i++ {
		for j := i; j < len(runes); j += columns {
			b.WriteRune(runes[j])
		}
	}
	return b.String()
}

// Divisors returns every positive divisor of n in ascending order.
func Divisors(n int) []int {
	if n <= 0 {
		return nil
	}
	var low, high []int
	for i := 1; i*i <= n; i++ {
		if n%i != 0 {
			continue
		}
		low = append(low, i)
		if j := n / i; j != i {
			high = append(high, j)
		}
	}
	for i := len(high) - 1; i >= 0; i-- {
		low = append(low, high[i])
	}
	return low
}
