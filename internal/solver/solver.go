// Package solver implements ciphertext-only key searches for the supported ciphers.
//
// A Strategy tries keys in its own order and hands each decryption to a Reporter;
// ranking and progress accounting belong to the caller.
package solver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/verte-zerg/cipherbreak/internal/alphabet"
	"github.com/verte-zerg/cipherbreak/internal/model"
	"github.com/verte-zerg/cipherbreak/internal/ngram"
)

// Reporter receives the progress of a running Strategy.
type Reporter interface {
	// TotalPossibilities announces the number of keys the strategy will try.
	TotalPossibilities(n int)
	// Indeterminate announces that the number of keys is not known in advance.
	Indeterminate()
	// Candidate scores a decryption and records it.
	Candidate(key any, plaintext string) error
	// ScoredCandidate records a decryption the strategy has already scored.
	ScoredCandidate(key any, plaintext string, score float64)
}

// Strategy searches the key space of one cipher.
type Strategy interface {
	ID() string
	Name() string
	FormatKey(key any) string
	Run(ctx context.Context, ciphertext string, r Reporter) error
}

// Models provides n-gram models by pattern length. *ngram.Cache satisfies it.
type Models interface {
	Get(n int) (*ngram.Model, error)
}

// MaxRateN is the longest pattern length used to score reported candidates.
const MaxRateN = 4

// Rate scores plaintext the way reported candidates are ranked: with the model for
// min(MaxRateN, letter count), and never less than 1.
func Rate(models Models, plaintext string) (float64, error) {
	letters := alphabet.Indices(plaintext)
	n := max(1, min(MaxRateN, len(letters)))
	m, err := models.Get(n)
	if err != nil {
		return 0, err
	}
	return m.RateLetters(letters), nil
}

// Deps carries what strategies need beyond the ciphertext.
type Deps struct {
	Models       Models
	Substitution model.SubstitutionOptions
}

var constructors = map[string]func(Deps) Strategy{
	"caesar":       func(Deps) Strategy { return Caesar{} },
	"affine":       func(Deps) Strategy { return Affine{} },
	"scytale":      func(Deps) Strategy { return Scytale{} },
	"substitution": func(d Deps) Strategy { return &Substitution{Models: d.Models, Options: d.Substitution} },
	"vigenere":     func(d Deps) Strategy { return &Vigenere{Models: d.Models} },
}

// New returns the strategy registered under id.
func New(id string, deps Deps) (Strategy, error) {
	ctor, ok := constructors[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, fmt.Errorf("no solver for cipher %q (available: %s)", id, strings.Join(IDs(), ", "))
	}
	return ctor(deps), nil
}

// IDs lists the ciphers that have a solver.
func IDs() []string {
	ids := make([]string, 0, len(constructors))
	for id := range constructors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
