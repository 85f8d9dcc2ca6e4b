package ngram

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrDataUnavailable is returned when no usable frequency table exists for n.
var ErrDataUnavailable = errors.New("n-gram data unavailable")

// Source provides raw pattern counts for a given pattern length.
type Source interface {
	LoadFrequencies(n int) (map[string]int64, error)
}

// DirSource reads tables named <n>GRAM.txt from a directory. Each line holds a
// pattern and its count separated by whitespace.
type DirSource struct {
	Dir string
}

// TablePath returns the table file path for n.
func (s DirSource) TablePath(n int) string {
	return TablePath(s.Dir, n)
}

// TablePath returns the conventional table file path for n inside dir.
func TablePath(dir string, n int) string {
	return filepath.Join(dir, strconv.Itoa(n)+"GRAM.txt")
}

// LoadFrequencies implements Source.
func (s DirSource) LoadFrequencies(n int) (map[string]int64, error) {
	if s.Dir == "" {
		return nil, fmt.Errorf("%w: no table directory configured", ErrDataUnavailable)
	}
	tablePath := s.TablePath(n)
	file, err := os.Open(tablePath)
	if err != nil {
		return nil, openError(err, tablePath, n)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only table.
			_ = cerr
		}
	}()
	return readTable(file, tablePath, n)
}

// FSSource reads <n>GRAM.txt tables from Dir inside a file system such as an embed.FS.
type FSSource struct {
	FS  fs.FS
	Dir string
}

// LoadFrequencies implements Source.
func (s FSSource) LoadFrequencies(n int) (map[string]int64, error) {
	name := path.Join(s.Dir, strconv.Itoa(n)+"GRAM.txt")
	file, err := s.FS.Open(name)
	if err != nil {
		return nil, openError(err, name, n)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only table.
			_ = cerr
		}
	}()
	return readTable(file, name, n)
}

func openError(err error, name string, n int) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: no table for n=%d at %s", ErrDataUnavailable, n, name)
	}
	return fmt.Errorf("failed to open %s: %w", name, err)
}

func readTable(r io.Reader, name string, n int) (map[string]int64, error) {
	counts := map[string]int64{}
	scanner := bufio.NewScanner(r)
	lno := 0
	for scanner.Scan() {
		lno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		pattern, count, err := parseTableLine(line, n)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, lno, err)
		}
		counts[pattern] += count
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: table %s is empty", ErrDataUnavailable, name)
	}
	return counts, nil
}

func parseTableLine(line string, n int) (string, int64, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", 0, fmt.Errorf("%w: expected pattern and count", ErrDataUnavailable)
	}
	pattern := strings.ToUpper(fields[0])
	if err := validatePattern(pattern, n); err != nil {
		return "", 0, err
	}
	count, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || count <= 0 {
		return "", 0, fmt.Errorf("%w: invalid count %q", ErrDataUnavailable, fields[1])
	}
	return pattern, count, nil
}

// CorpusSource counts patterns in a text on demand. It suits small test corpora; real
// models come from Embedded or table directories.
type CorpusSource struct {
	Text string
}

// LoadFrequencies implements Source.
func (s CorpusSource) LoadFrequencies(n int) (map[string]int64, error) {
	counts, err := Count(strings.NewReader(s.Text), n)
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: corpus has fewer than %d letters", ErrDataUnavailable, n)
	}
	return counts, nil
}

// FallbackSource tries each source in order and moves on only when a source reports
// ErrDataUnavailable.
type FallbackSource []Source

// LoadFrequencies implements Source.
func (f FallbackSource) LoadFrequencies(n int) (map[string]int64, error) {
	err := fmt.Errorf("%w: no sources configured", ErrDataUnavailable)
	for _, src := range f {
		var counts map[string]int64
		counts, err = src.LoadFrequencies(n)
		if err == nil {
			return counts, nil
		}
		if !errors.Is(err, ErrDataUnavailable) {
			return nil, err
		}
	}
	return nil, err
}

// MapSource serves fixed tables keyed by n.
type MapSource map[int]map[string]int64

// LoadFrequencies implements Source.
func (m MapSource) LoadFrequencies(n int) (map[string]int64, error) {
	counts, ok := m[n]
	if !ok {
		return nil, fmt.Errorf("%w: no table for n=%d", ErrDataUnavailable, n)
	}
	return counts, nil
}
