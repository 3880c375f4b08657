package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText breaks text into lines no wider than width cells. Words wider than
// a line are split across lines.
func wrapText(text string, width int) string {
	words := strings.Fields(text)
	if width <= 0 || len(words) == 0 {
		return strings.Join(words, " ")
	}
	var lines []string
	line := ""
	lineWidth := 0
	for _, word := range words {
		for runewidth.StringWidth(word) > width {
			if lineWidth > 0 {
				lines = append(lines, line)
				line, lineWidth = "", 0
			}
			head, tail := splitAtWidth(word, width)
			lines = append(lines, head)
			word = tail
		}
		w := runewidth.StringWidth(word)
		if w == 0 {
			continue
		}
		switch {
		case lineWidth == 0:
			line, lineWidth = word, w
		case lineWidth+1+w <= width:
			line += " " + word
			lineWidth += 1 + w
		default:
			lines = append(lines, line)
			line, lineWidth = word, w
		}
	}
	if lineWidth > 0 {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// splitAtWidth returns the longest prefix of s that fits in width cells and
// the rest. At least one rune is taken so progress is always made.
func splitAtWidth(s string, width int) (string, string) {
	used := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if used+rw > width && i > 0 {
			return s[:i], s[i:]
		}
		used += rw
	}
	return s, ""
}

// truncate shortens s to width cells, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
