package ngram

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Count tallies every run of n consecutive letters in r, ignoring non-letters and case.
// Letters on either side of punctuation or a line break form a pattern, matching how
// Rate windows letters-only text.
func Count(r io.Reader, n int) (map[string]int64, error) {
	if n < 1 {
		return nil, fmt.Errorf("n must be at least 1, got %d", n)
	}
	counts := map[string]int64{}
	window := make([]byte, 0, n)
	reader := bufio.NewReader(r)
	for {
		ch, err := reader.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus: %w", err)
		}
		switch {
		case ch >= 'A' && ch <= 'Z':
		case ch >= 'a' && ch <= 'z':
			ch -= 'a' - 'A'
		default:
			continue
		}
		if len(window) == n {
			copy(window, window[1:])
			window = window[:n-1]
		}
		window = append(window, ch)
		if len(window) == n {
			counts[string(window)]++
		}
	}
	return counts, nil
}

// Entry is one row of a frequency table.
type Entry struct {
	Pattern string
	Count   int64
}

// SortedEntries orders counts by descending count, then pattern.
func SortedEntries(counts map[string]int64) []Entry {
	entries := make([]Entry, 0, len(counts))
	for pattern, count := range counts {
		entries = append(entries, Entry{Pattern: pattern, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count == entries[j].Count {
			return entries[i].Pattern < entries[j].Pattern
		}
		return entries[i].Count > entries[j].Count
	})
	return entries
}

// WriteTable writes counts in the format read by DirSource, replacing path atomically.
func WriteTable(path string, counts map[string]int64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create table dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "ngram-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create temp table: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	for _, e := range SortedEntries(counts) {
		if _, err := fmt.Fprintf(writer, "%s %d\n", e.Pattern, e.Count); err != nil {
			return fmt.Errorf("failed to write table: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close table: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}
