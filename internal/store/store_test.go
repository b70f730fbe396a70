package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/trialscope/internal/behavioral"
	"github.com/harrison/trialscope/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSummary() *behavioral.CrossDaySummary {
	qw := 2
	perf := 75.0
	entry := func(idx int, date time.Time, box string) behavioral.CrossDayEntry {
		return behavioral.CrossDayEntry{
			DayIndex: idx,
			SessionMetrics: models.SessionMetrics{
				SessionMeta: models.SessionMeta{
					Animal:     "925145",
					Protocol:   "2ChoiceAuditory",
					Date:       date,
					Box:        box,
					SourceFile: "2ChoiceAuditory_925145_box" + box + ".csv",
				},
				TotalTrials:    10,
				Classified:     8,
				Unclassified:   2,
				CategoryCounts: map[models.Category]int{models.CategoryCorrectLeft: 3},
				CorrectLeft:    3,
				HitRate:        0.75,
				FalseAlarmRate: 0.25,
				DPrime:         1.3490,
				QW:             &qw,
				Performance:    &perf,
				Stimuli:        map[string]models.StimulusCounts{"5KHz": {Trials: 4, Correct: 3}},
			},
		}
	}
	return &behavioral.CrossDaySummary{
		Animal:   "925145",
		Subtitle: "Tone-spout mapping: 5KHz → left spout, 10KHz → right spout",
		Entries: []behavioral.CrossDayEntry{
			entry(0, time.Date(2025, 5, 30, 9, 0, 0, 0, time.UTC), "1"),
			entry(1, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), "2"),
		},
	}
}

func TestNewStore_AppliesMigrations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	latest, err := s.LatestVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), latest)

	applied, err := s.AppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, len(migrations))

	// Re-applying is a no-op
	require.NoError(t, s.ApplyMigrations(ctx))
	applied, err = s.AppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, len(migrations))
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "summaries.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, path, s.Path())
	assert.FileExists(t, path)
}

func TestStore_SaveAndLoadSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	want := sampleSummary()

	runID, err := s.SaveSummary(ctx, "925145", "2ChoiceAuditory", want)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	got, err := s.LoadSummary(ctx, runID)
	require.NoError(t, err)
	require.NoError(t, got.Validate())

	assert.Equal(t, want.Animal, got.Animal)
	assert.Equal(t, want.Subtitle, got.Subtitle)
	require.Len(t, got.Entries, 2)
	for i := range want.Entries {
		w, g := want.Entries[i], got.Entries[i]
		assert.Equal(t, w.DayIndex, g.DayIndex)
		assert.True(t, w.Date.Equal(g.Date))
		assert.Equal(t, w.Box, g.Box)
		assert.Equal(t, w.SourceFile, g.SourceFile)
		assert.Equal(t, w.CorrectLeft, g.CorrectLeft)
		assert.Equal(t, w.CategoryCounts, g.CategoryCounts)
		assert.Equal(t, w.Stimuli, g.Stimuli)
		assert.InDelta(t, w.DPrime, g.DPrime, 1e-9)
		require.NotNil(t, g.QW)
		assert.Equal(t, 2, *g.QW)
		assert.Nil(t, g.Licks)
	}
}

func TestStore_SaveRejectsInvalidSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveSummary(ctx, "925145", "2ChoiceAuditory", nil)
	assert.Error(t, err)

	bad := sampleSummary()
	bad.Entries[1].DayIndex = 5
	_, err = s.SaveSummary(ctx, "925145", "2ChoiceAuditory", bad)
	assert.Error(t, err)

	runs, err := s.ListRuns(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStore_ListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.SaveSummary(ctx, "925145", "2ChoiceAuditory", sampleSummary())
	require.NoError(t, err)
	other := sampleSummary()
	other.Animal = "930001"
	_, err = s.SaveSummary(ctx, "930001", "2ChoiceAuditory", other)
	require.NoError(t, err)
	second, err := s.SaveSummary(ctx, "925145", "2ChoiceBlocks", sampleSummary())
	require.NoError(t, err)

	all, err := s.ListRuns(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	runs, err := s.ListRuns(ctx, "925145")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID, "newest run first")
	assert.Equal(t, first, runs[1].ID)
	assert.Equal(t, "2ChoiceBlocks", runs[0].Protocol)
	assert.Equal(t, 2, runs[0].SessionCount)
	assert.Contains(t, runs[0].Subtitle, "5KHz")
	assert.False(t, runs[0].CreatedAt.IsZero())

	none, err := s.ListRuns(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_LoadUnknownRun(t *testing.T) {
	s := newTestStore(t)
	_, err := s.LoadSummary(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_DeleteRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	runID, err := s.SaveSummary(ctx, "925145", "2ChoiceAuditory", sampleSummary())
	require.NoError(t, err)

	require.NoError(t, s.DeleteRun(ctx, runID))
	_, err = s.LoadSummary(ctx, runID)
	assert.ErrorIs(t, err, ErrRunNotFound)

	var sessions int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM summary_sessions WHERE run_id = ?`, runID).Scan(&sessions))
	assert.Zero(t, sessions, "sessions are removed with their run")

	assert.ErrorIs(t, s.DeleteRun(ctx, runID), ErrRunNotFound)
}
