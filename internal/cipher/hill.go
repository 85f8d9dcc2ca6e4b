package cipher

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/verte-zerg/cipherbreak/internal/alphabet"
)

// HillKey is a square key matrix for the Hill cipher.
type HillKey [][]int

// Order returns the matrix dimension, or an error when the matrix is not square.
func (k HillKey) Order() (int, error) {
	n := len(k)
	if n == 0 {
		return 0, fmt.Errorf("%w: empty key matrix", ErrInvalidKey)
	}
	for _, row := range k {
		if len(row) != n {
			return 0, fmt.Errorf("%w: key must be a square matrix", ErrInvalidKey)
		}
	}
	return n, nil
}

func (k HillKey) String() string {
	rows := make([]string, len(k))
	for i, row := range k {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = strconv.Itoa(v)
		}
		rows[i] = strings.Join(cells, ",")
	}
	return strings.Join(rows, ";")
}

// ParseHillKey reads rows separated by ';' and cells separated by ',', e.g. "3,3;2,5".
func ParseHillKey(key string) (HillKey, error) {
	var k HillKey
	for _, rowText := range strings.Split(strings.TrimSpace(key), ";") {
		var row []int
		for _, cell := range strings.Split(rowText, ",") {
			v, err := strconv.Atoi(strings.TrimSpace(cell))
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidKey, cell)
			}
			row = append(row, v)
		}
		k = append(k, row)
	}
	if _, err := k.Order(); err != nil {
		return nil, err
	}
	return k, nil
}

// Hill multiplies blocks of letters by the key matrix. Non-letters are removed, the
// output is upper case and the message is padded with pad to a whole number of blocks.
func Hill(text string, key HillKey, pad byte) (string, error) {
	n, err := key.Order()
	if err != nil {
		return "", err
	}
	if pad < 'A' || pad > 'Z' {
		return "", fmt.Errorf("%w: pad must be an uppercase letter", ErrInvalidKey)
	}
	letters := alphabet.Indices(text)
	for len(letters)%n != 0 {
		letters = append(letters, pad-'A')
	}
	return applyHill(letters, key, n), nil
}

// ReverseHill decrypts with the modular inverse of the key matrix. Non-letters are
// ignored; the remaining letter count must be a multiple of the key order.
func ReverseHill(text string, key HillKey) (string, error) {
	n, err := key.Order()
	if err != nil {
		return "", err
	}
	letters := alphabet.Indices(text)
	if len(letters)%n != 0 {
		return "", fmt.Errorf("%w: letter count %d is not a multiple of the key order %d", ErrInvalidText, len(letters), n)
	}
	inverse, err := inverseHillKey(key, n)
	if err != nil {
		return "", err
	}
	return applyHill(letters, inverse, n), nil
}

func applyHill(letters []byte, key HillKey, n int) string {
	var b strings.Builder
	b.Grow(len(letters))
	for start := 0; start < len(letters); start += n {
		block := letters[start : start+n]
		for row := 0; row < n; row++ {
			sum := 0
			for col := 0; col < n; col++ {
				sum += key[row][col] * int(block[col])
			}
			b.WriteByte(byte('A' + alphabet.Mod(sum, alphabet.Size)))
		}
	}
	return b.String()
}

// inverseHillKey computes det⁻¹ · adj(key) mod 26, where adj = inv(key) · det.
func inverseHillKey(key HillKey, n int) (HillKey, error) {
	data := make([]float64, 0, n*n)
	for _, row := range key {
		for _, v := range row {
			data = append(data, float64(v))
		}
	}
	dense := mat.NewDense(n, n, data)
	det := int(math.Round(mat.Det(dense)))
	if det == 0 {
		return nil, fmt.Errorf("%w: key matrix is singular", ErrInvalidKey)
	}
	detInv, ok := ModInverse(det, alphabet.Size)
	if !ok {
		return nil, fmt.Errorf("%w: determinant %d is not coprime with 26", ErrInvalidKey, det)
	}
	var inv mat.Dense
	if err := inv.Inverse(dense); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
	}
	out := make(HillKey, n)
	for i := 0; i < n; i++ {
		out[i] = make([]int, n)
		for j := 0; j < n; j++ {
			adj := int(math.Round(inv.At(i, j) * float64(det)))
			out[i][j] = alphabet.Mod(detInv*adj, alphabet.Size)
		}
	}
	return out, nil
}
