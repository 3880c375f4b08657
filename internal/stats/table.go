// Package stats contains statistics calculations and reporting.
package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// FormatTable pads cells into aligned columns and returns one line per row,
// with the header first.
func FormatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	widths := columnWidths(headers, rows)
	if len(widths) == 0 {
		return nil
	}
	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

// ClipRows returns a copy of rows with every cell cut to maxWidth display
// columns. Long card text ends in an ellipsis. maxWidth <= 0 disables clipping.
func ClipRows(rows [][]string, maxWidth int) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		clipped := make([]string, len(row))
		for j, cell := range row {
			if maxWidth > 0 && runewidth.StringWidth(cell) > maxWidth {
				cell = runewidth.Truncate(cell, maxWidth, ellipsis)
			}
			clipped[j] = cell
		}
		out[i] = clipped
	}
	return out
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	grow := func(row []string) {
		for i, cell := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	grow(headers)
	for _, row := range rows {
		grow(row)
	}
	return widths
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	cells := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if rightAlignCols[i] {
			cells[i] = runewidth.FillLeft(cell, width)
		} else {
			cells[i] = runewidth.FillRight(cell, width)
		}
	}
	return strings.Join(cells, " ")
}
