package solver

import (
	"context"
	"fmt"

	"github.com/verte-zerg/cipherbreak/internal/alphabet"
	"github.com/verte-zerg/cipherbreak/internal/cipher"
)

// Caesar tries all 26 shifts. Keys are encryption shifts.
type Caesar struct{}

func (Caesar) ID() string   { return "caesar" }
func (Caesar) Name() string { return "Caesar Cipher" }

func (Caesar) FormatKey(key any) string {
	return fmt.Sprint(key)
}

func (Caesar) Run(ctx context.Context, ciphertext string, r Reporter) error {
	r.TotalPossibilities(alphabet.Size)
	for shift := 0; shift < alphabet.Size; shift++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Candidate(shift, cipher.Caesar(ciphertext, -shift)); err != nil {
			return err
		}
	}
	return nil
}

// Affine tries every invertible multiplier with every offset.
type Affine struct{}

func (Affine) ID() string   { return "affine" }
func (Affine) Name() string { return "Affine Cipher" }

func (Affine) FormatKey(key any) string {
	if k, ok := key.(cipher.AffineKey); ok {
		return fmt.Sprintf("%d,%d", k.A, k.B)
	}
	return fmt.Sprint(key)
}

func (Affine) Run(ctx context.Context, ciphertext string, r Reporter) error {
	multipliers := cipher.AffineMultipliers()
	r.TotalPossibilities(len(multipliers) * alphabet.Size)
	for _, a := range multipliers {
		if err := ctx.Err(); err != nil {
			return err
		}
		for b := 0; b < alphabet.Size; b++ {
			plain, err := cipher.ReverseAffine(ciphertext, a, b)
			if err != nil {
				return err
			}
			if err := r.Candidate(cipher.AffineKey{A: a, B: b}, plain); err != nil {
				return err
			}
		}
	}
	return nil
}

// Scytale tries every column count that divides the ciphertext length.
type Scytale struct{}

func (Scytale) ID() string   { return "scytale" }
func (Scytale) Name() string { return "Scytale Cipher" }

func (Scytale) FormatKey(key any) string {
	return fmt.Sprint(key)
}

func (Scytale) Run(ctx context.Context, ciphertext string, r Reporter) error {
	columns := cipher.Divisors(len([]rune(ciphertext)))
	r.TotalPossibilities(len(columns))
	for _, c := range columns {
		if err := ctx.Err(); err != nil {
			return err
		}
		plain, err := cipher.ReverseScytale(ciphertext, c)
		if err != nil {
			return err
		}
		if err := r.Candidate(c, plain); err != nil {
			return err
		}
	}
	return nil
}
