// Package check measures how often solvers recover known plaintexts.
package check

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/cipherbreak/internal/alphabet"
	"github.com/verte-zerg/cipherbreak/internal/cipher"
	"github.com/verte-zerg/cipherbreak/internal/generator"
	"github.com/verte-zerg/cipherbreak/internal/model"
	"github.com/verte-zerg/cipherbreak/internal/solver"
	"github.com/verte-zerg/cipherbreak/internal/worker"
)

// Options controls a benchmark.
type Options struct {
	Ciphers    []string
	Samples    int
	MinLetters int
	Seed       int64
	Parallel   int
	// Timeout bounds each solver run; a run that times out counts as different.
	Timeout time.Duration
}

// Runner enciphers corpus samples with random keys and solves them.
type Runner struct {
	Deps       solver.Deps
	Paragraphs []string
	Logger     *slog.Logger
}

type job struct {
	cipher     string
	key        string
	plain      string
	ciphertext string
}

// Run benchmarks every cipher in opts. Results are ordered by cipher, then sample.
func (r Runner) Run(ctx context.Context, opts Options) ([]model.CheckResult, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gen := generator.NewSeeded(opts.Seed)

	var jobs []job
	for _, id := range opts.Ciphers {
		c, ok := cipher.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("unknown cipher %q", id)
		}
		for i := 0; i < opts.Samples; i++ {
			plain := gen.Sample(r.Paragraphs, opts.MinLetters)
			key, err := gen.Key(c.ID, len([]rune(plain)))
			if err != nil {
				return nil, err
			}
			ciphertext, err := c.Encode(plain, key)
			if err != nil {
				return nil, fmt.Errorf("failed to encode sample: %w", err)
			}
			jobs = append(jobs, job{cipher: c.ID, key: key, plain: plain, ciphertext: ciphertext})
		}
	}

	results := make([]model.CheckResult, len(jobs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, opts.Parallel))
	for i, j := range jobs {
		g.Go(func() error {
			res, err := r.solve(gCtx, j, opts.Timeout)
			if err != nil {
				return err
			}
			results[i] = res
			logger.Debug("check sample solved", "cipher", j.cipher, "key", j.key, "verdict", res.Verdict(), "elapsed", res.Duration)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r Runner) solve(ctx context.Context, j job, timeout time.Duration) (model.CheckResult, error) {
	strategy, err := solver.New(j.cipher, r.Deps)
	if err != nil {
		return model.CheckResult{}, err
	}
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	summary := worker.Start(runCtx, strategy, r.Deps.Models, j.ciphertext, worker.WithLogger(slog.New(slog.DiscardHandler))).Wait()
	if summary.Outcome == model.OutcomeFailed {
		return model.CheckResult{}, fmt.Errorf("failed to solve %s sample: %w", j.cipher, summary.Err)
	}
	if err := ctx.Err(); err != nil {
		return model.CheckResult{}, err
	}
	return model.CheckResult{
		Cipher:   j.cipher,
		Key:      j.key,
		Rank:     Rank(summary.TopK, j.plain),
		Duration: summary.EndedAt.Sub(summary.StartedAt),
	}, nil
}

// Rank returns the 1-based position of plain among candidates comparing letters only,
// or 0 if it is absent.
func Rank(candidates []model.Candidate, plain string) int {
	want := alphabet.LettersOnlyUpper(plain)
	for i, c := range candidates {
		if alphabet.LettersOnlyUpper(c.Plaintext) == want {
			return i + 1
		}
	}
	return 0
}

// Summary aggregates results for one cipher.
type Summary struct {
	Cipher    string
	Samples   int
	Best      int
	Top       int
	Different int
	Mean      time.Duration
	Median    time.Duration
	P90       time.Duration
	Max       time.Duration
}

// Summarize groups results by cipher, sorted by cipher id.
func Summarize(results []model.CheckResult) ([]Summary, error) {
	byCipher := map[string][]model.CheckResult{}
	for _, r := range results {
		byCipher[r.Cipher] = append(byCipher[r.Cipher], r)
	}
	ids := make([]string, 0, len(byCipher))
	for id := range byCipher {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		group := byCipher[id]
		s := Summary{Cipher: id, Samples: len(group)}
		durations := make(stats.Float64Data, 0, len(group))
		for _, r := range group {
			switch r.Verdict() {
			case model.VerdictBest:
				s.Best++
			case model.VerdictTop:
				s.Top++
			default:
				s.Different++
			}
			durations = append(durations, r.Duration.Seconds())
		}
		mean, err := stats.Mean(durations)
		if err != nil {
			return nil, err
		}
		median, err := stats.Median(durations)
		if err != nil {
			return nil, err
		}
		p90, err := stats.PercentileNearestRank(durations, 90)
		if err != nil {
			return nil, err
		}
		maxVal, err := stats.Max(durations)
		if err != nil {
			return nil, err
		}
		s.Mean = seconds(mean)
		s.Median = seconds(median)
		s.P90 = seconds(p90)
		s.Max = seconds(maxVal)
		out = append(out, s)
	}
	return out, nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
