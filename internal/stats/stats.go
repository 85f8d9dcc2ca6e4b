package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/cipherbreak/internal/alphabet"
	"github.com/verte-zerg/cipherbreak/internal/check"
	"github.com/verte-zerg/cipherbreak/internal/cipher"
	"github.com/verte-zerg/cipherbreak/internal/model"
	"github.com/verte-zerg/cipherbreak/internal/ngram"
)

const sparkChars = " .:-=+*#%@"

// shortIDLen is how much of a run id is shown in tables.
const shortIDLen = 8

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// LetterProfile renders letter counts as a sparkline under the alphabet.
func LetterProfile(counts [alphabet.Size]int) []string {
	values := make([]float64, alphabet.Size)
	for i, c := range counts {
		values[i] = float64(c)
	}
	return []string{alphabet.Upper, Sparkline(values)}
}

// RenderCiphers lists registered ciphers, marking those with a solver.
func RenderCiphers(w io.Writer, ciphers []cipher.Cipher, solvers []string) error {
	solvable := make(map[string]bool, len(solvers))
	for _, id := range solvers {
		solvable[id] = true
	}
	rows := make([][]string, 0, len(ciphers))
	for _, c := range ciphers {
		solve := "no"
		if solvable[c.ID] {
			solve = "yes"
		}
		rows = append(rows, []string{c.ID, c.Name, solve, c.KeyHelp})
	}
	return writeLines(w, formatTable([]string{"ID", "Name", "Solver", "Key"}, rows, nil))
}

// RenderCandidates prints ranked candidates, fitting plaintext previews into width columns.
func RenderCandidates(w io.Writer, cands []model.Candidate, width int) error {
	if len(cands) == 0 {
		_, err := fmt.Fprintln(w, "No candidates.")
		return err
	}
	keyWidth := len("Key")
	for _, c := range cands {
		keyWidth = max(keyWidth, displayWidth(c.KeyText))
	}
	previewWidth := 0
	if width > 0 {
		// rank, score and separators take about 14 columns
		previewWidth = max(20, width-keyWidth-14)
	}

	headers := []string{"#", "Score", "Key", "Plaintext"}
	rows := make([][]string, 0, len(cands))
	for i, c := range cands {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.4f", c.Score),
			c.KeyText,
			Truncate(OneLine(c.Plaintext), previewWidth),
		})
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{0: true, 1: true}))
}

// RenderHistory prints stored runs, most recent first.
func RenderHistory(w io.Writer, runs []model.RunSummary, width int) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	previewWidth := 0
	if width > 0 {
		previewWidth = max(16, width-80)
	}
	headers := []string{"ID", "Ended", "Cipher", "Outcome", "Tried", "Best Key", "Score", "Preview"}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		score := ""
		if r.BestKey != "" {
			score = fmt.Sprintf("%.4f", r.BestScore)
		}
		rows = append(rows, []string{
			shortID(r.ID),
			r.EndedAt.Local().Format("2006-01-02 15:04"),
			r.Cipher,
			string(r.Outcome),
			fmt.Sprintf("%d", r.Tried),
			Truncate(r.BestKey, 26),
			score,
			Truncate(OneLine(r.Preview), previewWidth),
		})
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{4: true, 6: true}))
}

// RenderRun prints one stored run with its ranked candidates.
func RenderRun(w io.Writer, rec model.RunRecord, cands []model.Candidate, width int) error {
	total := "indeterminate"
	if rec.Total >= 0 {
		total = fmt.Sprintf("%d", rec.Total)
	}
	lines := []string{
		fmt.Sprintf("Run: %s", rec.ID),
		fmt.Sprintf("Cipher: %s", rec.Cipher),
		fmt.Sprintf("Outcome: %s", rec.Outcome),
		fmt.Sprintf("Started: %s", rec.StartedAt.Local().Format(time.RFC3339)),
		fmt.Sprintf("Duration: %s", rec.EndedAt.Sub(rec.StartedAt).Round(time.Millisecond)),
		fmt.Sprintf("Tried: %d of %s", rec.Tried, total),
	}
	if rec.Error != "" {
		lines = append(lines, fmt.Sprintf("Error: %s", rec.Error))
	}
	lines = append(lines, fmt.Sprintf("Ciphertext: %s", Truncate(OneLine(rec.Ciphertext), max(0, width-12))), "")
	if err := writeLines(w, lines); err != nil {
		return err
	}
	return RenderCandidates(w, cands, width)
}

// RenderCheck prints benchmark summaries.
func RenderCheck(w io.Writer, summaries []check.Summary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No samples.")
		return err
	}
	headers := []string{"Cipher", "Samples", "Best", "Top 10", "Different", "Mean", "Median", "P90", "Max"}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Cipher,
			fmt.Sprintf("%d", s.Samples),
			percent(s.Best, s.Samples),
			percent(s.Top, s.Samples),
			percent(s.Different, s.Samples),
			s.Mean.Round(time.Millisecond).String(),
			s.Median.Round(time.Millisecond).String(),
			s.P90.Round(time.Millisecond).String(),
			s.Max.Round(time.Millisecond).String(),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true, 8: true}
	return writeLines(w, formatTable(headers, rows, rightAlign))
}

// RenderModelInfo prints a model's statistics and its most frequent patterns.
func RenderModelInfo(w io.Writer, m *ngram.Model, top int) error {
	lines := []string{
		fmt.Sprintf("N: %d", m.N),
		fmt.Sprintf("Patterns: %d", len(m.Scores)),
		fmt.Sprintf("Total: %d", m.Total),
		fmt.Sprintf("Average: %.4f", m.Average),
		fmt.Sprintf("Unseen score: %.4f", m.ScoreOther),
	}
	if m.N == 1 {
		var counts [alphabet.Size]int
		for pattern, score := range m.Scores {
			counts[pattern[0]-'A'] = int(math.Round(math.Pow(10, -score) * float64(m.Total)))
		}
		lines = append(lines, "")
		lines = append(lines, LetterProfile(counts)...)
	}
	lines = append(lines, "")
	if err := writeLines(w, lines); err != nil {
		return err
	}

	patterns := make([]string, 0, len(m.Scores))
	for p := range m.Scores {
		patterns = append(patterns, p)
	}
	sort.Slice(patterns, func(i, j int) bool {
		si, sj := m.Scores[patterns[i]], m.Scores[patterns[j]]
		if si == sj {
			return patterns[i] < patterns[j]
		}
		return si < sj
	})
	if top > 0 && len(patterns) > top {
		patterns = patterns[:top]
	}
	rows := make([][]string, 0, len(patterns))
	for _, p := range patterns {
		rows = append(rows, []string{p, fmt.Sprintf("%.4f", m.Scores[p]), fmt.Sprintf("%.3f%%", math.Pow(10, -m.Scores[p])*100)})
	}
	return writeLines(w, formatTable([]string{"Pattern", "Score", "Frequency"}, rows, map[int]bool{1: true, 2: true}))
}

func percent(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(n)/float64(total)*100)
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}
