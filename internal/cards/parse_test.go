package cards

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/tuicard/internal/model"
)

func TestParseMixedDelimiters(t *testing.T) {
	got := Parse("hej,hello\nnej;no\nbadline")
	want := []model.Card{
		{Source: "hej", Target: "hello"},
		{Source: "nej", Target: "no"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d cards, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("card %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestParseDropsInvalidLines(t *testing.T) {
	input := strings.Join([]string{
		"  katt , cat , extra ",
		",missing source",
		"missing target;",
		"",
		"hund;dog",
		"a;b,c",
		"\r",
	}, "\n")
	got := Parse(input)
	if len(got) != 3 {
		t.Fatalf("expected 3 cards, got %d: %+v", len(got), got)
	}
	if got[0] != (model.Card{Source: "katt", Target: "cat"}) {
		t.Fatalf("unexpected first card: %+v", got[0])
	}
	if got[1] != (model.Card{Source: "hund", Target: "dog"}) {
		t.Fatalf("unexpected second card: %+v", got[1])
	}
	// Comma wins over semicolon when both are present.
	if got[2] != (model.Card{Source: "a;b", Target: "c"}) {
		t.Fatalf("unexpected third card: %+v", got[2])
	}
}

func TestParseEmpty(t *testing.T) {
	if got := Parse(""); len(got) != 0 {
		t.Fatalf("expected no cards, got %+v", got)
	}
	if _, err := ParseStrict("  \n nothing here"); !errors.Is(err, ErrNoCards) {
		t.Fatalf("expected ErrNoCards, got %v", err)
	}
}

func TestFilter(t *testing.T) {
	list := []model.Card{
		{Source: "Äpple", Target: "apple"},
		{Source: "päron", Target: "pear"},
		{Source: "banan", Target: "Banana"},
	}
	got := Filter(list, " ÄPP ")
	if len(got) != 1 || got[0].Target != "apple" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
	got = Filter(list, "banana")
	if len(got) != 1 || got[0].Source != "banan" {
		t.Fatalf("expected match on target, got %+v", got)
	}
	all := Filter(list, "   ")
	if len(all) != len(list) {
		t.Fatalf("expected blank query to keep all cards, got %d", len(all))
	}
	all[0].Source = "changed"
	if list[0].Source != "Äpple" {
		t.Fatalf("filter must not alias the input slice")
	}
}

func TestDisplayName(t *testing.T) {
	names := map[string]string{
		"vocabulary-food.csv":         "Vocabulary Food",
		"expressions-expats.csv":      "Expressions Expats",
		"idioms.csv":                  "Idioms",
		"data/vocabulary_vardags.txt": "Vocabulary Vardags",
		"mixedCase-words.csv":         "MixedCase Words",
	}
	for in, want := range names {
		if got := DisplayName(in); got != want {
			t.Fatalf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "food.csv")
	if err := os.WriteFile(path, []byte("\nmat,food\n\n  bröd;bread  \n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	text, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if text != "mat,food\nbröd;bread" {
		t.Fatalf("unexpected text: %q", text)
	}

	bad := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("no delimiters\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadFile(bad); !errors.Is(err, ErrNoCards) {
		t.Fatalf("expected ErrNoCards, got %v", err)
	}
}
