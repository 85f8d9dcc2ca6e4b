// Package corpus provides reference English text used to train n-gram models.
package corpus

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/verte-zerg/cipherbreak/internal/alphabet"
)

//go:embed english.txt
var english string

// English returns the embedded reference corpus.
func English() string {
	return english
}

// Load reads and concatenates text files, separating them with a newline.
func Load(paths ...string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("no corpus files given")
	}
	var b strings.Builder
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read corpus %s: %w", path, err)
		}
		b.Write(data)
		b.WriteByte('\n')
	}
	if alphabet.LettersOnlyUpper(b.String()) == "" {
		return "", fmt.Errorf("corpus contains no letters")
	}
	return b.String(), nil
}

// Paragraphs splits text on blank lines and drops empty paragraphs.
func Paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
