// Package cards parses delimited card text and filters card lists.
//
// The format is one card per line with the source and target separated by a
// comma or, when the line has no comma, a semicolon. Extra fields are ignored.
// There is no quoting: a delimiter inside a field cannot be expressed.
package cards

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"

	"github.com/verte-zerg/tuicard/internal/model"
)

// ErrNoCards is returned when text contains no valid card lines.
var ErrNoCards = errors.New("no valid cards")

// Parse converts delimited text into cards, dropping unparseable lines.
func Parse(text string) []model.Card {
	lines := strings.Split(text, "\n")
	out := make([]model.Card, 0, len(lines))
	for _, line := range lines {
		card, ok := parseLine(line)
		if !ok {
			continue
		}
		out = append(out, card)
	}
	return out
}

// ParseStrict parses text and fails with ErrNoCards when nothing is valid.
func ParseStrict(text string) ([]model.Card, error) {
	parsed := Parse(text)
	if len(parsed) == 0 {
		return nil, ErrNoCards
	}
	return parsed, nil
}

func parseLine(line string) (model.Card, bool) {
	line = strings.TrimSpace(line)
	sep := delimiter(line)
	if sep == "" {
		return model.Card{}, false
	}
	fields := strings.Split(line, sep)
	if len(fields) < 2 {
		return model.Card{}, false
	}
	card := model.Card{
		Source: strings.TrimSpace(fields[0]),
		Target: strings.TrimSpace(fields[1]),
	}
	if card.Source == "" || card.Target == "" {
		return model.Card{}, false
	}
	return card, true
}

func delimiter(line string) string {
	switch {
	case strings.Contains(line, ","):
		return ","
	case strings.Contains(line, ";"):
		return ";"
	default:
		return ""
	}
}

// Fold trims and case-folds s for loose comparisons.
func Fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Filter returns the cards whose source or target contains query,
// ignoring case. A blank query returns a copy of all cards.
func Filter(list []model.Card, query string) []model.Card {
	q := Fold(query)
	out := make([]model.Card, 0, len(list))
	for _, card := range list {
		if q == "" || strings.Contains(Fold(card.Source), q) || strings.Contains(Fold(card.Target), q) {
			out = append(out, card)
		}
	}
	return out
}
