// Package cipher implements classical cipher transforms.
//
// Every transform works letter by letter on ASCII letters: other runes pass through
// unchanged and the case of each letter is preserved unless documented otherwise.
package cipher

import (
	"errors"

	"github.com/verte-zerg/cipherbreak/internal/alphabet"
)

// ErrInvalidKey is returned when a key cannot be used with a transform.
var ErrInvalidKey = errors.New("invalid key")

// ErrInvalidText is returned when a transform cannot accept the given text.
var ErrInvalidText = errors.New("invalid text")

// GCD returns the greatest common divisor of a and b.
func GCD(a, b int) int {
	for a != 0 {
		a, b = b%a, a
	}
	if b < 0 {
		return -b
	}
	return b
}

// ExtendedGCD returns gcd(a, b) and Bézout coefficients x, y with a*x + b*y = gcd.
func ExtendedGCD(a, b int) (gcd, x, y int) {
	prevX, curX := 1, 0
	prevY, curY := 0, 1
	for b != 0 {
		q := a / b
		prevX, curX = curX, prevX-q*curX
		prevY, curY = curY, prevY-q*curY
		a, b = b, a%b
	}
	return a, prevX, prevY
}

// ModInverse returns the multiplicative inverse of a modulo m.
// The boolean is false when a and m are not coprime.
func ModInverse(a, m int) (int, bool) {
	gcd, x, _ := ExtendedGCD(alphabet.Mod(a, m), m)
	if gcd != 1 {
		return 0, false
	}
	return alphabet.Mod(x, m), true
}

// AffineMultipliers returns the units of Z/26 in ascending order.
func AffineMultipliers() []int {
	units := make([]int, 0, 12)
	for a := 1; a < alphabet.Size; a++ {
		if GCD(a, alphabet.Size) == 1 {
			units = append(units, a)
		}
	}
	return units
}
