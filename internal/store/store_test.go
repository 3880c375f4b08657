package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuicard/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "tuicard.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestKeyValue(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, ok, err := st.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Set(ctx, "a", "1"))
	require.NoError(t, st.Set(ctx, "a", "2"))
	v, ok, err := st.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	require.NoError(t, st.Delete(ctx, "a"))
	_, ok, err = st.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCollectionsRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	got, err := st.LoadCollections(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	want := map[string]string{"Food": "mat,food\nbröd,bread", "Verbs": "gå;walk"}
	require.NoError(t, st.SaveCollections(ctx, want))
	got, err = st.LoadCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, st.SaveCollections(ctx, map[string]string{"Verbs": "gå;walk"}))
	got, err = st.LoadCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Verbs": "gå;walk"}, got)
}

func TestCollectionsCorrupt(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, KeyCollections, "{not json"))
	_, err := st.LoadCollections(ctx)
	require.Error(t, err)
}

func TestCredentials(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	key, region, err := st.Credentials(ctx)
	require.NoError(t, err)
	assert.Empty(t, key)
	assert.Empty(t, region)

	require.NoError(t, st.SaveCredentials(ctx, "secret", "swedencentral"))
	key, region, err = st.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "secret", key)
	assert.Equal(t, "swedencentral", region)

	require.NoError(t, st.SaveCredentials(ctx, "", ""))
	key, region, err = st.Credentials(ctx)
	require.NoError(t, err)
	assert.Empty(t, key)
	assert.Empty(t, region)
}

func TestSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	records := []model.SessionRecord{
		{RunID: "r1", Collection: "Food", Mode: model.ModeFlip, Total: 10, Correct: 7},
		{RunID: "r1", Collection: "Food", Mode: model.ModeFlip, Review: true, Total: 3, Correct: 3},
		{RunID: "r2", Collection: "Verbs", Mode: model.ModeTyping, Total: 10, Correct: 5},
	}
	var ids []int64
	for i, rec := range records {
		rec.StartedAt = base.Add(time.Duration(i) * time.Hour)
		rec.EndedAt = rec.StartedAt.Add(90 * time.Second)
		id, err := st.InsertSession(ctx, rec)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	all, err := st.ListSessions(ctx, model.StatsConfig{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[0], all[0].SessionID)
	assert.True(t, all[1].Review)
	assert.Equal(t, int64(90000), all[2].DurationMs)

	food, err := st.ListSessions(ctx, model.StatsConfig{Collection: "Food"})
	require.NoError(t, err)
	assert.Len(t, food, 2)

	since := base.Add(30 * time.Minute)
	recent, err := st.ListSessions(ctx, model.StatsConfig{Since: &since})
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "r1", recent[0].RunID)

	aggs, err := st.ListCollectionAggregates(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, []model.CollectionAggregate{
		{Collection: "Food", Rounds: 2, Total: 13, Correct: 10},
		{Collection: "Verbs", Rounds: 1, Total: 10, Correct: 5},
	}, aggs)
}
