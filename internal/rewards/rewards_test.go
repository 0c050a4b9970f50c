package rewards

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kidbloom/internal/model"
	"kidbloom/internal/store"
)

func TestNextMilestone(t *testing.T) {
	cases := []struct {
		points int
		want   int
	}{
		{0, 50},
		{49, 50},
		{50, 100},
		{120, 250},
		{499, 500},
		{800, 500},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NextMilestone(tc.points).Points, "points=%d", tc.points)
	}
}

func TestProgressPercent(t *testing.T) {
	assert.Equal(t, 0.0, progressPercent(0, Milestones[0]))
	assert.Equal(t, 50.0, progressPercent(25, Milestones[0]))
	assert.Equal(t, 100.0, progressPercent(900, Milestones[3]))
}

func TestCompleteActivity(t *testing.T) {
	ctx := context.Background()
	s, err := store.New(filepath.Join(t.TempDir(), "kidbloom.db"))
	require.NoError(t, err)
	defer s.Close()

	withPoints, err := s.SaveActivity(ctx, model.ActivityRecord{ScheduledDate: "2025-01-05", Title: "Vẽ", Points: 40})
	require.NoError(t, err)
	noPoints, err := s.SaveActivity(ctx, model.ActivityRecord{ScheduledDate: "2025-01-06", Title: "Hát", Points: 0})
	require.NoError(t, err)

	svc := NewService(s)
	session := &model.Session{UserID: uuid.New()}

	p, err := svc.CompleteActivity(ctx, session, withPoints.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, p.PointsEarned)
	assert.Equal(t, "Vẽ", p.ActivityTitle)

	_, err = svc.CompleteActivity(ctx, session, withPoints.ID)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	p, err = svc.CompleteActivity(ctx, session, noPoints.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultActivityPoints, p.PointsEarned)

	_, err = svc.CompleteActivity(ctx, session, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.CompleteActivity(ctx, nil, withPoints.ID)
	assert.Error(t, err)

	ach, err := svc.Achievements(ctx, session.UserID)
	require.NoError(t, err)
	assert.Equal(t, 50, ach.TotalPoints)
	assert.Equal(t, 2, ach.TotalActivities)
	assert.Equal(t, 100, ach.NextMilestone.Points)
	assert.Equal(t, 50.0, ach.ProgressPercent)
	assert.Len(t, ach.Completed, 2)
}
