package tui

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/cipherbreak/internal/alphabet"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledRunes styles a plaintext against the ciphertext it came from: letters the key
// changed, letters it left alone, and everything else.
func buildStyledRunes(plainRunes, cipherRunes []rune) []styledRune {
	out := make([]styledRune, 0, len(plainRunes))
	for i, r := range plainRunes {
		if unicode.IsSpace(r) {
			r = ' '
		}
		style := otherStyle
		if alphabet.IsLetter(r) {
			style = keptStyle
			if i >= len(cipherRunes) || unicode.ToUpper(cipherRunes[i]) != unicode.ToUpper(r) {
				style = changedStyle
			}
		}
		out = append(out, styledRune{
			s:       style.Render(string(r)),
			width:   runewidth.RuneWidth(r),
			isSpace: r == ' ',
		})
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks runes into lines of at most width columns, preferring spaces.
func wrapStyledRunes(runes []styledRune, width int) []string {
	if width <= 0 {
		return []string{renderStyledRunes(runes)}
	}
	var lines []string
	line := make([]styledRune, 0, width)
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				lines = append(lines, renderStyledRunes(line[:lastSpaceIdx]))
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				lines = append(lines, renderStyledRunes(line))
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	if len(line) > 0 || len(lines) == 0 {
		lines = append(lines, renderStyledRunes(line))
	}
	return lines
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
