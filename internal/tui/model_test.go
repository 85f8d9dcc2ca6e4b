package tui

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/cipherbreak/internal/cipher"
	"github.com/verte-zerg/cipherbreak/internal/model"
	"github.com/verte-zerg/cipherbreak/internal/ngram"
	"github.com/verte-zerg/cipherbreak/internal/solver"
	"github.com/verte-zerg/cipherbreak/internal/worker"
)

var (
	models = ngram.NewCache(ngram.Embedded())
	quiet  = worker.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
)

type blockingStrategy struct{}

func (blockingStrategy) ID() string             { return "block" }
func (blockingStrategy) Name() string           { return "Block" }
func (blockingStrategy) FormatKey(k any) string { return "" }
func (blockingStrategy) Run(ctx context.Context, _ string, r solver.Reporter) error {
	r.Indeterminate()
	<-ctx.Done()
	return ctx.Err()
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModelQuitsWhenRunFinishes(t *testing.T) {
	plain := "Nobody in the town was rich, but most families owned a small garden."
	ciphertext := cipher.Caesar(plain, 3)
	run := worker.Start(context.Background(), solver.Caesar{}, models, ciphertext, quiet)
	run.Wait()

	m := NewModel(run, "Caesar", ciphertext)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	_, cmd := m.Update(tickMsg(time.Now()))
	assert.True(t, isQuit(cmd))

	state := m.State()
	assert.True(t, state.Finished)
	assert.Equal(t, model.OutcomeDone, state.Outcome)
	assert.Equal(t, int64(26), state.Tried)
	require.NotEmpty(t, state.TopK)
	assert.Equal(t, "3", state.TopK[0].KeyText)

	view := m.View()
	assert.Contains(t, view, "Solving Caesar")
	assert.Contains(t, view, "26/26")
	assert.Contains(t, view, "Nobody in the town")
	assert.Contains(t, view, "done")
}

func TestModelKeepsPollingWhileRunning(t *testing.T) {
	run := worker.Start(context.Background(), blockingStrategy{}, models, "abc", quiet)
	defer run.Cancel()

	m := NewModel(run, "Block", "abc")
	_, cmd := m.Update(tickMsg(time.Now()))
	require.NotNil(t, cmd)
	assert.False(t, m.State().Finished)
	assert.Contains(t, m.View(), "No candidates yet.")
	assert.Contains(t, m.View(), "q/esc cancel")
}

func TestModelCancelsOnQuitKey(t *testing.T) {
	run := worker.Start(context.Background(), blockingStrategy{}, models, "abc", quiet)
	m := NewModel(run, "Block", "abc")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.True(t, isQuit(cmd))
	state := m.State()
	assert.True(t, state.Finished)
	assert.True(t, state.Indeterminate)
	assert.Equal(t, model.OutcomeCancelled, state.Outcome)
	assert.Contains(t, m.View(), "cancelled")
	assert.Contains(t, m.View(), "tried 0 keys")
}

func TestModelIgnoresOtherKeys(t *testing.T) {
	run := worker.Start(context.Background(), blockingStrategy{}, models, "abc", quiet)
	defer run.Cancel()
	m := NewModel(run, "Block", "abc")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Nil(t, cmd)
}
