package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/cipherbreak/internal/cipher"
	"github.com/verte-zerg/cipherbreak/internal/model"
	"github.com/verte-zerg/cipherbreak/internal/ngram"
	"github.com/verte-zerg/cipherbreak/internal/solver"
)

var models = ngram.NewCache(ngram.Embedded())

var quiet = WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

// fakeStrategy runs fn instead of a real search.
type fakeStrategy struct {
	fn func(ctx context.Context, r solver.Reporter) error
}

func (fakeStrategy) ID() string             { return "fake" }
func (fakeStrategy) Name() string           { return "Fake" }
func (fakeStrategy) FormatKey(k any) string { return k.(string) }
func (f fakeStrategy) Run(ctx context.Context, _ string, r solver.Reporter) error {
	return f.fn(ctx, r)
}

func collect(t *testing.T, r *Run) []Message {
	t.Helper()
	r.Wait()
	return r.Poll()
}

func TestCaesarRunDeliversOrderedMessages(t *testing.T) {
	plain := "Nobody in the town was rich, but most families owned a small garden."
	r := Start(context.Background(), solver.Caesar{}, models, cipher.Caesar(plain, 3), quiet)
	msgs := collect(t, r)
	require.NotEmpty(t, msgs)

	assert.Equal(t, KindTotal, msgs[0].Kind)
	assert.Equal(t, 26, msgs[0].Total)
	last := msgs[len(msgs)-1]
	assert.Equal(t, KindDone, last.Kind)
	assert.Equal(t, model.OutcomeDone, last.Outcome)

	var state State
	state.ApplyAll(msgs)
	assert.True(t, state.Finished)
	assert.Equal(t, int64(26), state.Tried)
	assert.Equal(t, 1.0, state.Fraction())
	require.Len(t, state.TopK, 10)
	assert.Equal(t, "3", state.TopK[0].KeyText)
	assert.Equal(t, plain, state.TopK[0].Plaintext)

	summary := r.Wait()
	assert.Equal(t, r.ID, summary.ID)
	assert.Equal(t, "caesar", summary.Cipher)
	assert.Equal(t, 26, summary.Total)
	assert.Equal(t, state.TopK, summary.TopK)
	assert.NoError(t, summary.Err)

	assert.Empty(t, r.Poll(), "messages are delivered once")
	r.Cancel()
	assert.Empty(t, r.Poll(), "cancel after completion is a no-op")
}

func TestPanicReportsFailedThenDone(t *testing.T) {
	s := fakeStrategy{fn: func(_ context.Context, r solver.Reporter) error {
		r.TotalPossibilities(2)
		r.ScoredCandidate("k", "text", 1)
		panic("boom")
	}}
	msgs := collect(t, Start(context.Background(), s, models, "", quiet))
	require.GreaterOrEqual(t, len(msgs), 2)

	failed := msgs[len(msgs)-2]
	assert.Equal(t, KindFailed, failed.Kind)
	assert.ErrorContains(t, failed.Err, "boom")
	done := msgs[len(msgs)-1]
	assert.Equal(t, KindDone, done.Kind)
	assert.Equal(t, model.OutcomeFailed, done.Outcome)

	var state State
	state.ApplyAll(msgs)
	assert.Error(t, state.Err)
	assert.Len(t, state.TopK, 1)
}

func TestErrorReportsFailed(t *testing.T) {
	s := fakeStrategy{fn: func(context.Context, solver.Reporter) error {
		return ngram.ErrDataUnavailable
	}}
	r := Start(context.Background(), s, models, "", quiet)
	summary := r.Wait()
	assert.Equal(t, model.OutcomeFailed, summary.Outcome)
	assert.ErrorIs(t, summary.Err, ngram.ErrDataUnavailable)
	assert.Equal(t, ngram.ErrDataUnavailable.Error(), summary.Record().Error)
}

func TestCancelStopsRun(t *testing.T) {
	started := make(chan struct{})
	s := fakeStrategy{fn: func(ctx context.Context, r solver.Reporter) error {
		r.Indeterminate()
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}
	r := Start(context.Background(), s, models, "", quiet)
	<-started

	r.Cancel()
	r.Cancel()
	msgs := r.Poll()
	require.Len(t, msgs, 2)
	assert.Equal(t, KindIndeterminate, msgs[0].Kind)
	assert.Equal(t, KindDone, msgs[1].Kind)
	assert.Equal(t, model.OutcomeCancelled, msgs[1].Outcome)
	assert.Equal(t, -1, r.Wait().Total)
	assert.NoError(t, r.Wait().Err)
}

func TestParentContextCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := fakeStrategy{fn: func(ctx context.Context, r solver.Reporter) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	r := Start(ctx, s, models, "", quiet)
	cancel()
	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
	assert.Equal(t, model.OutcomeCancelled, r.Wait().Outcome)
}

func TestReadySignalsNewMessages(t *testing.T) {
	release := make(chan struct{})
	s := fakeStrategy{fn: func(_ context.Context, r solver.Reporter) error {
		r.TotalPossibilities(1)
		<-release
		return nil
	}}
	r := Start(context.Background(), s, models, "", quiet)
	select {
	case <-r.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("no ready signal")
	}
	close(release)
	r.Wait()
}

func TestOnFinishAndLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	var calls atomic.Int32
	var got Summary
	r := Start(context.Background(), solver.Caesar{}, models, "Khoor", WithID("run-1"), WithLogger(logger),
		OnFinish(func(s Summary) {
			calls.Add(1)
			got = s
		}))
	r.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, int64(26), got.Tried)
	assert.Contains(t, buf.String(), "solver run finished")
	assert.Contains(t, buf.String(), "run=run-1")
}

func TestMailboxCoalesces(t *testing.T) {
	box := newMailbox()
	box.push(Message{Kind: KindTotal, Total: 5})
	box.push(Message{Kind: KindProgress, Count: 1})
	box.push(Message{Kind: KindTopK, TopK: []model.Candidate{{KeyText: "a"}}})
	box.push(Message{Kind: KindProgress, Count: 1})
	box.push(Message{Kind: KindTopK, TopK: []model.Candidate{{KeyText: "b"}}})
	box.push(Message{Kind: KindProgress, Count: 1})
	box.push(Message{Kind: KindFailed, Err: errors.New("x")})
	box.push(Message{Kind: KindProgress, Count: 1})

	msgs := box.drain()
	require.Len(t, msgs, 5)
	assert.Equal(t, KindTotal, msgs[0].Kind)
	assert.Equal(t, Message{Kind: KindProgress, Count: 3}, msgs[1])
	assert.Equal(t, "b", msgs[2].TopK[0].KeyText)
	assert.Equal(t, KindFailed, msgs[3].Kind)
	assert.Equal(t, 1, msgs[4].Count)
	assert.Empty(t, box.drain())
}

func TestStateIgnoresMessagesAfterDone(t *testing.T) {
	var s State
	s.Apply(Message{Kind: KindIndeterminate})
	assert.True(t, s.Indeterminate)
	assert.Zero(t, s.Fraction())
	s.Apply(Message{Kind: KindDone, Outcome: model.OutcomeCancelled})
	s.Apply(Message{Kind: KindProgress, Count: 4})
	s.Apply(Message{Kind: KindTopK, TopK: []model.Candidate{{}}})
	assert.Zero(t, s.Tried)
	assert.Nil(t, s.TopK)
	assert.Equal(t, model.OutcomeCancelled, s.Outcome)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "topk", KindTopK.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
