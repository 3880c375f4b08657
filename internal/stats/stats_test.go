package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tuicard/internal/model"
)

func TestAccuracy(t *testing.T) {
	if got := Accuracy(3, 4); got != 0.75 {
		t.Fatalf("expected 0.75, got %v", got)
	}
	if got := Accuracy(0, 0); got != 0 {
		t.Fatalf("expected 0 for empty round, got %v", got)
	}
}

func TestSummarize(t *testing.T) {
	end := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sessions := []model.SessionAggregate{
		{Total: 10, Correct: 5, DurationMs: 1000, EndedAt: end},
		{Total: 5, Correct: 5, Review: true, DurationMs: 500, EndedAt: end.Add(time.Minute)},
	}
	sum := Summarize(sessions)
	if sum.Rounds != 2 || sum.Reviews != 1 {
		t.Fatalf("unexpected rounds: %+v", sum)
	}
	if sum.Cards != 15 || sum.Correct != 10 {
		t.Fatalf("unexpected counts: %+v", sum)
	}
	if sum.Best != 1 || sum.Last != 1 || !sum.HasLast {
		t.Fatalf("unexpected best/last: %+v", sum)
	}
	if sum.AvgAccuracy != 0.75 {
		t.Fatalf("expected avg 0.75, got %v", sum.AvgAccuracy)
	}
	if sum.StudyTimeMs != 1500 || !sum.LastStudied.Equal(end.Add(time.Minute)) {
		t.Fatalf("unexpected time fields: %+v", sum)
	}
	if empty := Summarize(nil); empty.HasLast || empty.OverallRatio != 0 {
		t.Fatalf("unexpected empty summary: %+v", empty)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if got := MovingAverage([]float64{1, 2}, 0); got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected passthrough, got %v", got)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 50, 100}); got != " +@" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{3, 3}); got != "++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
	if Sparkline(nil) != "" {
		t.Fatalf("expected empty sparkline")
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No study rounds found." {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRenderCollectionsWeakestFirst(t *testing.T) {
	var buf bytes.Buffer
	err := RenderCollections(&buf, []model.CollectionAggregate{
		{Collection: "Idioms", Rounds: 1, Total: 10, Correct: 9},
		{Collection: "Proverbs", Rounds: 2, Total: 10, Correct: 3},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 4 {
		t.Fatalf("unexpected output %q", buf.String())
	}
	if !strings.HasPrefix(lines[2], "Proverbs") || !strings.HasPrefix(lines[3], "Idioms") {
		t.Fatalf("expected weakest first, got %q", buf.String())
	}
}
