// Package model defines shared data structures.
package model

import "time"

// Candidate is one decryption attempt. Lower scores are more English-like.
type Candidate struct {
	Plaintext string  `json:"plaintext" yaml:"plaintext"`
	Key       any     `json:"-" yaml:"-"`
	KeyText   string  `json:"key" yaml:"key"`
	Score     float64 `json:"score" yaml:"score"`
}

// Outcome is the terminal state of a solver run.
type Outcome string

// Outcomes recorded for finished runs.
const (
	OutcomeDone      Outcome = "done"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// SubstitutionOptions tunes the substitution hill climber.
type SubstitutionOptions struct {
	// Threshold is the rating below which a converged key is accepted and the search stops.
	Threshold   float64 `flag:"threshold" validate:"gte=0"`
	MaxRestarts int     `flag:"max-restarts" validate:"gte=1"`
	MaxSweeps   int     `flag:"max-sweeps" validate:"gte=1"`
	NgramSize   int     `flag:"ngram-size" validate:"gte=1,lte=6"`
	// Seed drives restarts; 0 picks a time-based seed.
	Seed int64
}

// DefaultSubstitutionOptions returns the tuned defaults.
func DefaultSubstitutionOptions() SubstitutionOptions {
	return SubstitutionOptions{
		Threshold:   0.25,
		MaxRestarts: 10000,
		MaxSweeps:   5000,
		NgramSize:   4,
	}
}

// SolveConfig defines solver settings resolved from config and flags.
type SolveConfig struct {
	Cipher       string `flag:"cipher" validate:"required"`
	NgramDir     string `flag:"ngrams"`
	Substitution SubstitutionOptions
	Format       string `flag:"format" validate:"oneof=table json yaml"`
	Save         bool   `flag:"save"`
}

// ServeConfig defines HTTP API settings.
type ServeConfig struct {
	Addr string `flag:"addr" validate:"required,hostname_port"`
	// ProgressRate caps websocket progress frames per second.
	ProgressRate float64 `flag:"progress-rate" validate:"gt=0"`
	// MaxRuns caps solves running at once.
	MaxRuns int `flag:"max-runs" validate:"gte=1"`
	// AllowedOrigins lists browser origins trusted besides the server's own.
	AllowedOrigins []string `flag:"allowed-origins" validate:"dive,url"`
}

// RunRecord captures a finished solver run.
type RunRecord struct {
	ID         string    `json:"id" yaml:"id"`
	Cipher     string    `json:"cipher" yaml:"cipher"`
	Ciphertext string    `json:"ciphertext" yaml:"ciphertext"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	EndedAt    time.Time `json:"ended_at" yaml:"ended_at"`
	Outcome    Outcome   `json:"outcome" yaml:"outcome"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
	// Total is the announced key-space size, or -1 when indeterminate.
	Total int   `json:"total" yaml:"total"`
	Tried int64 `json:"tried" yaml:"tried"`
}

// RunSummary is a history row with its best candidate.
type RunSummary struct {
	ID        string    `json:"id" yaml:"id"`
	Cipher    string    `json:"cipher" yaml:"cipher"`
	EndedAt   time.Time `json:"ended_at" yaml:"ended_at"`
	Outcome   Outcome   `json:"outcome" yaml:"outcome"`
	Tried     int64     `json:"tried" yaml:"tried"`
	BestKey   string    `json:"best_key,omitempty" yaml:"best_key,omitempty"`
	BestScore float64   `json:"best_score,omitempty" yaml:"best_score,omitempty"`
	Preview   string    `json:"preview,omitempty" yaml:"preview,omitempty"`
}

// HistoryFilter selects stored runs.
type HistoryFilter struct {
	Cipher string
	Since  *time.Time
	Limit  int
}

// CheckResult classifies one benchmark sample.
type CheckResult struct {
	Cipher   string
	Key      string
	Rank     int
	Duration time.Duration
}

// Verdict buckets for CheckResult ranks.
const (
	VerdictBest      = "best"
	VerdictTop       = "top10"
	VerdictDifferent = "different"
)

// Verdict reports whether the true plaintext was ranked first, in the top 10, or missed.
func (r CheckResult) Verdict() string {
	switch {
	case r.Rank == 1:
		return VerdictBest
	case r.Rank > 1:
		return VerdictTop
	default:
		return VerdictDifferent
	}
}
