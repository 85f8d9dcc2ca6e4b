// Package topk keeps the best-scoring candidates seen during a search.
package topk

import (
	"sort"

	"github.com/verte-zerg/cipherbreak/internal/model"
)

// DefaultSize is the number of candidates a solver run retains.
const DefaultSize = 10

// Accumulator holds at most k candidates sorted ascending by score.
// It is owned by a single goroutine; publish with Snapshot.
type Accumulator struct {
	k     int
	items []model.Candidate
}

// New returns an empty accumulator of capacity k (DefaultSize when k < 1).
func New(k int) *Accumulator {
	if k < 1 {
		k = DefaultSize
	}
	return &Accumulator{k: k, items: make([]model.Candidate, 0, k+1)}
}

// Offer inserts c if there is room or it scores strictly better than the current worst.
// A candidate identical in plaintext and key to one already held is rejected.
func (a *Accumulator) Offer(c model.Candidate) bool {
	if len(a.items) >= a.k && c.Score >= a.items[len(a.items)-1].Score {
		return false
	}
	for _, held := range a.items {
		if held.Plaintext == c.Plaintext && held.KeyText == c.KeyText {
			return false
		}
	}
	a.items = append(a.items, c)
	sort.SliceStable(a.items, func(i, j int) bool {
		return a.items[i].Score < a.items[j].Score
	})
	if len(a.items) > a.k {
		a.items = a.items[:a.k]
	}
	return true
}

// Snapshot returns a copy of the held candidates, best first.
func (a *Accumulator) Snapshot() []model.Candidate {
	out := make([]model.Candidate, len(a.items))
	copy(out, a.items)
	return out
}

// Len returns the number of held candidates.
func (a *Accumulator) Len() int {
	return len(a.items)
}

// Best returns the lowest-scoring candidate.
func (a *Accumulator) Best() (model.Candidate, bool) {
	if len(a.items) == 0 {
		return model.Candidate{}, false
	}
	return a.items[0], true
}
