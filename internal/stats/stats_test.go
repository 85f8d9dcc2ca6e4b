package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/cipherbreak/internal/alphabet"
	"github.com/verte-zerg/cipherbreak/internal/check"
	"github.com/verte-zerg/cipherbreak/internal/cipher"
	"github.com/verte-zerg/cipherbreak/internal/model"
	"github.com/verte-zerg/cipherbreak/internal/ngram"
)

func TestSparkline(t *testing.T) {
	assert.Equal(t, "", Sparkline(nil))
	assert.Equal(t, "+++", Sparkline([]float64{2, 2, 2}))
	assert.Equal(t, " @", Sparkline([]float64{0, 1}))
}

func TestLetterProfile(t *testing.T) {
	var counts [alphabet.Size]int
	counts[4] = 10
	lines := LetterProfile(counts)
	require.Len(t, lines, 2)
	assert.Equal(t, alphabet.Upper, lines[0])
	assert.Equal(t, "    @", lines[1][:5])
	assert.Len(t, lines[1], alphabet.Size)
}

func TestRenderCandidates(t *testing.T) {
	var buf bytes.Buffer
	cands := []model.Candidate{
		{Plaintext: "attack at\ndawn", KeyText: "3", Score: 0.12346},
		{Plaintext: "bttbdl bu ebxo", KeyText: "4", Score: 1.5},
	}
	require.NoError(t, RenderCandidates(&buf, cands, 0))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	// Rank and score are right-aligned; Score widens to fit "0.1235".
	assert.Equal(t, "#  Score Key Plaintext     ", lines[0])
	assert.Contains(t, lines[1], "0.1235 3   attack at dawn")
	assert.Contains(t, lines[2], "1.5000 4   bttbdl bu ebxo")

	buf.Reset()
	long := []model.Candidate{{Plaintext: strings.Repeat("abc ", 50), KeyText: "1"}}
	require.NoError(t, RenderCandidates(&buf, long, 40))
	assert.Contains(t, buf.String(), "…")

	buf.Reset()
	require.NoError(t, RenderCandidates(&buf, nil, 80))
	assert.Equal(t, "No candidates.\n", buf.String())
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	runs := []model.RunSummary{
		{
			ID:        "0123456789abcdef",
			Cipher:    "caesar",
			EndedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			Outcome:   model.OutcomeDone,
			Tried:     26,
			BestKey:   "7",
			BestScore: 0.5,
			Preview:   "hello\nworld",
		},
		{ID: "ffff", Cipher: "vigenere", Outcome: model.OutcomeCancelled},
	}
	require.NoError(t, RenderHistory(&buf, runs, 0))
	out := buf.String()
	assert.Contains(t, out, "01234567 ")
	assert.NotContains(t, out, "0123456789")
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "0.5000")
	assert.Contains(t, out, "cancelled")

	buf.Reset()
	require.NoError(t, RenderHistory(&buf, nil, 0))
	assert.Equal(t, "No runs found.\n", buf.String())
}

func TestRenderRun(t *testing.T) {
	var buf bytes.Buffer
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := model.RunRecord{
		ID:         "run-1",
		Cipher:     "substitution",
		Ciphertext: "XLMW MW",
		StartedAt:  start,
		EndedAt:    start.Add(1500 * time.Millisecond),
		Outcome:    model.OutcomeFailed,
		Error:      "boom",
		Total:      -1,
		Tried:      12,
	}
	require.NoError(t, RenderRun(&buf, rec, nil, 80))
	out := buf.String()
	assert.Contains(t, out, "Run: run-1")
	assert.Contains(t, out, "Duration: 1.5s")
	assert.Contains(t, out, "Tried: 12 of indeterminate")
	assert.Contains(t, out, "Error: boom")
	assert.Contains(t, out, "Ciphertext: XLMW MW")
	assert.Contains(t, out, "No candidates.")
}

func TestRenderCheck(t *testing.T) {
	var buf bytes.Buffer
	summaries := []check.Summary{{
		Cipher: "affine", Samples: 4, Best: 3, Top: 1,
		Mean: 1500 * time.Microsecond, Median: time.Millisecond, P90: 2 * time.Millisecond, Max: 3 * time.Millisecond,
	}}
	require.NoError(t, RenderCheck(&buf, summaries))
	out := buf.String()
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "25.0%")
	assert.Contains(t, out, "0.0%")
	assert.Contains(t, out, "3ms")

	buf.Reset()
	require.NoError(t, RenderCheck(&buf, nil))
	assert.Equal(t, "No samples.\n", buf.String())
}

func TestRenderModelInfo(t *testing.T) {
	m, err := ngram.New(1, map[string]int64{"E": 6, "T": 3, "A": 1})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, RenderModelInfo(&buf, m, 2))
	out := buf.String()
	assert.Contains(t, out, "N: 1")
	assert.Contains(t, out, "Patterns: 3")
	assert.Contains(t, out, "Total: 10")
	assert.Contains(t, out, alphabet.Upper)
	assert.Contains(t, out, "60.000%")
	assert.Contains(t, out, "30.000%")
	assert.NotContains(t, out, "10.000%")
}

func TestRenderCiphers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderCiphers(&buf, cipher.All(), []string{"caesar"}))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, len(cipher.All())+1)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	for _, line := range lines[1:] {
		if strings.HasPrefix(line, "caesar ") {
			assert.Contains(t, line, " yes ")
		} else {
			assert.Contains(t, line, " no ")
		}
	}
}
