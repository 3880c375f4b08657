// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/tuicard/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Accuracy returns correct/total in [0,1], or 0 for an empty round.
func Accuracy(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total)
}

// Summary aggregates a set of rounds.
type Summary struct {
	Rounds       int
	Reviews      int
	Cards        int
	Correct      int
	Best         float64
	Last         float64
	HasLast      bool
	StudyTimeMs  int64
	LastStudied  time.Time
	AvgAccuracy  float64
	OverallRatio float64
}

// Summarize folds rounds, oldest first, into a Summary.
func Summarize(sessions []model.SessionAggregate) Summary {
	var sum Summary
	var totalAcc float64
	for _, s := range sessions {
		acc := Accuracy(s.Correct, s.Total)
		sum.Rounds++
		if s.Review {
			sum.Reviews++
		}
		sum.Cards += s.Total
		sum.Correct += s.Correct
		sum.StudyTimeMs += s.DurationMs
		totalAcc += acc
		if acc > sum.Best {
			sum.Best = acc
		}
		sum.Last = acc
		sum.HasLast = true
		if s.EndedAt.After(sum.LastStudied) {
			sum.LastStudied = s.EndedAt
		}
	}
	if sum.Rounds > 0 {
		sum.AvgAccuracy = totalAcc / float64(sum.Rounds)
	}
	sum.OverallRatio = Accuracy(sum.Correct, sum.Cards)
	return sum
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a summary block for rounds.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No study rounds found.")
		return err
	}
	sum := Summarize(sessions)
	lines := []string{
		"Summary",
		fmt.Sprintf("Rounds: %d (%d review)", sum.Rounds, sum.Reviews),
		fmt.Sprintf("Cards studied: %d", sum.Cards),
		fmt.Sprintf("Overall accuracy: %s", percent(sum.OverallRatio)),
		fmt.Sprintf("Avg round accuracy: %s", percent(sum.AvgAccuracy)),
		fmt.Sprintf("Best round: %s", percent(sum.Best)),
		fmt.Sprintf("Last round: %s", percent(sum.Last)),
		fmt.Sprintf("Study time: %s", time.Duration(sum.StudyTimeMs)*time.Millisecond),
		fmt.Sprintf("Last studied: %s", sum.LastStudied.Local().Format("2006-01-02 15:04")),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurve prints the moving-average accuracy of rounds as a sparkline.
func RenderCurve(w io.Writer, sessions []model.SessionAggregate, window int) error {
	if len(sessions) < 2 {
		return nil
	}
	accs := make([]float64, len(sessions))
	for i, s := range sessions {
		accs[i] = Accuracy(s.Correct, s.Total) * 100
	}
	smoothed := MovingAverage(accs, window)
	if _, err := fmt.Fprintf(w, "Accuracy curve (window %d)\n", max(window, 1)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s  %.0f%% -> %.0f%%\n\n", Sparkline(smoothed), smoothed[0], smoothed[len(smoothed)-1]); err != nil {
		return err
	}
	return nil
}

// RenderCollections prints per-collection aggregates, weakest first.
func RenderCollections(w io.Writer, aggs []model.CollectionAggregate) error {
	if len(aggs) == 0 {
		return nil
	}
	rows := append([]model.CollectionAggregate(nil), aggs...)
	sort.SliceStable(rows, func(i, j int) bool {
		ai := Accuracy(rows[i].Correct, rows[i].Total)
		aj := Accuracy(rows[j].Correct, rows[j].Total)
		if ai == aj {
			return rows[i].Collection < rows[j].Collection
		}
		return ai < aj
	})

	if _, err := fmt.Fprintln(w, "Per-Collection"); err != nil {
		return err
	}
	headers := []string{"Collection", "Rounds", "Cards", "Correct", "Accuracy"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			r.Collection,
			fmt.Sprintf("%d", r.Rounds),
			fmt.Sprintf("%d", r.Total),
			fmt.Sprintf("%d", r.Correct),
			percent(Accuracy(r.Correct, r.Total)),
		})
	}
	return writeTable(w, headers, tableRows, map[int]bool{1: true, 2: true, 3: true, 4: true})
}

// RenderRecent prints the most recent rounds, newest first.
func RenderRecent(w io.Writer, sessions []model.SessionAggregate, n int) error {
	if len(sessions) == 0 || n <= 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Recent Rounds"); err != nil {
		return err
	}
	headers := []string{"Ended", "Collection", "Kind", "Score", "Accuracy"}
	var tableRows [][]string
	for i := len(sessions) - 1; i >= 0 && len(tableRows) < n; i-- {
		s := sessions[i]
		kind := "round"
		if s.Review {
			kind = "review"
		}
		tableRows = append(tableRows, []string{
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			s.Collection,
			kind,
			fmt.Sprintf("%d/%d", s.Correct, s.Total),
			percent(Accuracy(s.Correct, s.Total)),
		})
	}
	return writeTable(w, headers, tableRows, map[int]bool{3: true, 4: true})
}

func writeTable(w io.Writer, headers []string, rows [][]string, rightAlign map[int]bool) error {
	for _, line := range FormatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}
