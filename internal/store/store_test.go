package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayfinder/internal/journey"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journeys.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestJourneyRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	rec := journey.JourneyRecord{
		ID:        "j-1",
		Input:     "why do goroutines leak",
		Status:    journey.JourneyActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateJourney(ctx, rec))

	got, err := s.GetJourney(ctx, "j-1")
	require.NoError(t, err)
	assert.Equal(t, rec.Input, got.Input)
	assert.Equal(t, journey.JourneyActive, got.Status)
	assert.Equal(t, 0, got.CurrentStageIndex)
}

func TestGetJourneyNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetJourney(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateJourneyUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := journey.JourneyRecord{ID: "j-2", Input: "topic", Status: journey.JourneyActive, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.UpdateJourney(ctx, rec), "first update creates the row")

	rec.Status = journey.JourneyPaused
	rec.CurrentStageIndex = 3
	require.NoError(t, s.UpdateJourney(ctx, rec))

	got, err := s.GetJourney(ctx, "j-2")
	require.NoError(t, err)
	assert.Equal(t, journey.JourneyPaused, got.Status)
	assert.Equal(t, 3, got.CurrentStageIndex)
}

func TestSetStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, s.CreateJourney(ctx, journey.JourneyRecord{ID: "j-3", Input: "x", Status: journey.JourneyActive, CreatedAt: now, UpdatedAt: now}))

	require.NoError(t, s.SetStatus(ctx, "j-3", journey.JourneyStopped))
	got, err := s.GetJourney(ctx, "j-3")
	require.NoError(t, err)
	assert.Equal(t, journey.JourneyStopped, got.Status)

	assert.ErrorIs(t, s.SetStatus(ctx, "missing", journey.JourneyPaused), ErrNotFound)
}

func TestStagesOrderedAndReplacedOnRerun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, s.CreateJourney(ctx, journey.JourneyRecord{ID: "j-4", Input: "x", Status: journey.JourneyActive, CreatedAt: now, UpdatedAt: now}))

	for i, typ := range []journey.StageType{journey.StageExplore, journey.StageQuestion} {
		require.NoError(t, s.CreateStage(ctx, "j-4", journey.Stage{
			ID:          "s-" + string(typ),
			Number:      i + 1,
			Type:        typ,
			Status:      journey.StageComplete,
			Result:      "output " + string(typ),
			CreatedAt:   now,
			CompletedAt: now,
		}))
	}

	// Re-running stage 2 replaces the earlier row instead of duplicating it.
	require.NoError(t, s.CreateStage(ctx, "j-4", journey.Stage{
		ID:        "s-question-2",
		Number:    2,
		Type:      journey.StageQuestion,
		Status:    journey.StageError,
		Result:    "failed attempt",
		CreatedAt: now,
	}))

	stages, err := s.ListStages(ctx, "j-4")
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, journey.StageExplore, stages[0].Type)
	assert.Equal(t, journey.StageError, stages[1].Status)
	assert.Equal(t, "failed attempt", stages[1].Result)
	assert.True(t, stages[1].CompletedAt.IsZero(), "incomplete stage has no completion time")
}

func TestListJourneysFiltersByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, s.CreateJourney(ctx, journey.JourneyRecord{ID: "a", Input: "1", Status: journey.JourneyCompleted, CreatedAt: base.Add(-time.Hour), UpdatedAt: base}))
	require.NoError(t, s.CreateJourney(ctx, journey.JourneyRecord{ID: "b", Input: "2", Status: journey.JourneyActive, CreatedAt: base, UpdatedAt: base}))

	all, err := s.ListJourneys(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID, "newest first")

	active, err := s.ListJourneys(ctx, journey.JourneyActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "b", active[0].ID)
}

func TestExportJourney(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, s.CreateJourney(ctx, journey.JourneyRecord{ID: "j-5", Input: "x", Status: journey.JourneyCompleted, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, s.CreateStage(ctx, "j-5", journey.Stage{ID: "s1", Number: 1, Type: journey.StageExplore, Status: journey.StageComplete, CreatedAt: now, CompletedAt: now}))

	raw, err := s.ExportJourney(ctx, "j-5")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"journey"`)
	assert.Contains(t, string(raw), `"explore"`)
}
