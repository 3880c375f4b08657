package stats

import (
	"context"
	"fmt"
	"io"

	"github.com/verte-zerg/tuicard/internal/model"
)

const recentRounds = 5

// SessionSource lists stored rounds.
type SessionSource interface {
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error)
	ListCollectionAggregates(ctx context.Context, sessionIDs []int64) ([]model.CollectionAggregate, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions         []model.SessionAggregate
	WindowSessionIDs []int64
	Collections      []model.CollectionAggregate
	CurveWindow      int
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, src SessionSource, cfg model.StatsConfig) (Report, error) {
	sessions, err := src.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list rounds: %w", err)
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}

	collections, err := src.ListCollectionAggregates(ctx, sessionIDs(sessions))
	if err != nil {
		return Report{}, fmt.Errorf("failed to aggregate collections: %w", err)
	}

	return Report{
		Sessions:         sessions,
		WindowSessionIDs: lastSessionIDs(sessions, cfg.CurveWindow),
		Collections:      collections,
		CurveWindow:      cfg.CurveWindow,
	}, nil
}

// Render writes the full report.
func (r Report) Render(w io.Writer) error {
	if err := RenderSummary(w, r.Sessions); err != nil {
		return err
	}
	if err := RenderCurve(w, r.Sessions, r.CurveWindow); err != nil {
		return err
	}
	if err := RenderCollections(w, r.Collections); err != nil {
		return err
	}
	return RenderRecent(w, r.Sessions, recentRounds)
}

func sessionIDs(sessions []model.SessionAggregate) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	return ids
}

func lastSessionIDs(sessions []model.SessionAggregate, window int) []int64 {
	if window <= 0 || len(sessions) <= window {
		return sessionIDs(sessions)
	}
	return sessionIDs(sessions[len(sessions)-window:])
}
