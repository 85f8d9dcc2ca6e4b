// Package worker runs solver strategies in the background and relays their progress.
//
// A Run owns its strategy and accumulator exclusively. The caller only sees ordered
// Messages through Poll, which never blocks, and may cancel at any time.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/cipherbreak/internal/alphabet"
	"github.com/verte-zerg/cipherbreak/internal/model"
	"github.com/verte-zerg/cipherbreak/internal/solver"
	"github.com/verte-zerg/cipherbreak/internal/topk"
)

// Summary describes a finished run.
type Summary struct {
	ID         string
	Cipher     string
	Ciphertext string
	StartedAt  time.Time
	EndedAt    time.Time
	Outcome    model.Outcome
	Err        error
	// Total is the announced key-space size, or -1 when indeterminate or never announced.
	Total int
	Tried int64
	TopK  []model.Candidate
}

// Record converts the summary for storage.
func (s Summary) Record() model.RunRecord {
	rec := model.RunRecord{
		ID:         s.ID,
		Cipher:     s.Cipher,
		Ciphertext: s.Ciphertext,
		StartedAt:  s.StartedAt,
		EndedAt:    s.EndedAt,
		Outcome:    s.Outcome,
		Total:      s.Total,
		Tried:      s.Tried,
	}
	if s.Err != nil {
		rec.Error = s.Err.Error()
	}
	return rec
}

// Option configures Start.
type Option func(*options)

type options struct {
	id       string
	logger   *slog.Logger
	onFinish []func(Summary)
}

// WithID sets the run id instead of a random UUID.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

// WithLogger sets the lifecycle logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// OnFinish registers a callback invoked from the worker goroutine after done is queued.
func OnFinish(fn func(Summary)) Option {
	return func(o *options) { o.onFinish = append(o.onFinish, fn) }
}

// Run is one strategy bound to one ciphertext.
type Run struct {
	ID        string
	Cipher    string
	StartedAt time.Time

	box     *mailbox
	cancel  context.CancelFunc
	done    chan struct{}
	summary Summary
}

// Start launches strategy on ciphertext in a new goroutine. Candidates are scored with
// models via solver.Rate.
func Start(ctx context.Context, strategy solver.Strategy, models solver.Models, ciphertext string, opts ...Option) *Run {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(ctx)
	r := &Run{
		ID:        o.id,
		Cipher:    strategy.ID(),
		StartedAt: time.Now(),
		box:       newMailbox(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go r.loop(ctx, strategy, models, ciphertext, o)
	return r
}

func (r *Run) loop(ctx context.Context, strategy solver.Strategy, models solver.Models, ciphertext string, o options) {
	defer close(r.done)
	defer r.cancel()

	logger := o.logger.With("run", r.ID, "cipher", r.Cipher)
	logger.Debug("solver run started", "letters", len(alphabet.Indices(ciphertext)))

	rep := &reporter{
		box:      r.box,
		strategy: strategy,
		models:   models,
		acc:      topk.New(topk.DefaultSize),
		total:    -1,
	}
	err := execute(ctx, strategy, ciphertext, rep)

	outcome := model.OutcomeDone
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		outcome = model.OutcomeCancelled
		err = nil
	default:
		outcome = model.OutcomeFailed
		r.box.push(Message{Kind: KindFailed, Err: err})
	}
	r.box.push(Message{Kind: KindDone, Outcome: outcome})

	r.summary = Summary{
		ID:         r.ID,
		Cipher:     r.Cipher,
		Ciphertext: ciphertext,
		StartedAt:  r.StartedAt,
		EndedAt:    time.Now(),
		Outcome:    outcome,
		Err:        err,
		Total:      rep.total,
		Tried:      rep.tried,
		TopK:       rep.acc.Snapshot(),
	}
	attrs := []any{"outcome", outcome, "tried", rep.tried, "elapsed", r.summary.EndedAt.Sub(r.StartedAt)}
	if err != nil {
		logger.Error("solver run failed", append(attrs, "err", err)...)
	} else {
		logger.Info("solver run finished", attrs...)
	}
	for _, fn := range o.onFinish {
		fn(r.summary)
	}
}

func execute(ctx context.Context, strategy solver.Strategy, ciphertext string, rep *reporter) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("solver panicked: %v\n%s", p, debug.Stack())
		}
	}()
	return strategy.Run(ctx, ciphertext, rep)
}

// Poll returns every message queued since the last call, oldest first. It never blocks.
func (r *Run) Poll() []Message {
	return r.box.drain()
}

// Ready is signalled whenever new messages are queued.
func (r *Run) Ready() <-chan struct{} {
	return r.box.ready
}

// Done is closed once the worker goroutine has exited.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Cancel stops the run and waits for the worker to exit. It is a no-op once the run
// has finished.
func (r *Run) Cancel() {
	r.cancel()
	<-r.done
}

// Wait blocks until the run finishes and returns its summary.
func (r *Run) Wait() Summary {
	<-r.done
	return r.summary
}

// reporter adapts solver callbacks to mailbox messages. Only the worker goroutine uses it.
type reporter struct {
	box      *mailbox
	strategy solver.Strategy
	models   solver.Models
	acc      *topk.Accumulator
	total    int
	tried    int64
}

func (p *reporter) TotalPossibilities(n int) {
	p.total = n
	p.box.push(Message{Kind: KindTotal, Total: n})
}

func (p *reporter) Indeterminate() {
	p.total = -1
	p.box.push(Message{Kind: KindIndeterminate})
}

func (p *reporter) Candidate(key any, plaintext string) error {
	score, err := solver.Rate(p.models, plaintext)
	if err != nil {
		return fmt.Errorf("failed to score candidate: %w", err)
	}
	p.ScoredCandidate(key, plaintext, score)
	return nil
}

func (p *reporter) ScoredCandidate(key any, plaintext string, score float64) {
	p.tried++
	p.box.push(Message{Kind: KindProgress, Count: 1})
	c := model.Candidate{Plaintext: plaintext, Key: key, KeyText: p.strategy.FormatKey(key), Score: score}
	if p.acc.Offer(c) {
		p.box.push(Message{Kind: KindTopK, TopK: p.acc.Snapshot()})
	}
}
