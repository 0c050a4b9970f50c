package rewards

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"kidbloom/internal/logging"
	"kidbloom/internal/model"
	"kidbloom/internal/observability"
	"kidbloom/internal/store"
)

// ErrAlreadyCompleted is returned when a user completes the same activity twice.
var ErrAlreadyCompleted = errors.New("activity already completed")

// Milestones are the points thresholds shown on the achievements page.
var Milestones = []model.Milestone{
	{Points: 50, Label: "Người mới bắt đầu", Icon: "🌱"},
	{Points: 100, Label: "Nhà hoạt động", Icon: "⭐"},
	{Points: 250, Label: "Siêu phụ huynh", Icon: "🏆"},
	{Points: 500, Label: "Chuyên gia", Icon: "👑"},
}

// Store is the persistence the rewards service needs.
type Store interface {
	GetActivity(ctx context.Context, id uuid.UUID) (*model.ActivityRecord, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
	RecordCompletion(ctx context.Context, p model.Progress) (*model.Progress, error)
	ListProgress(ctx context.Context, userID uuid.UUID) ([]model.Progress, error)
}

// Service awards points for completed activities.
type Service struct {
	store Store
}

// NewService returns a rewards service over s.
func NewService(s Store) *Service {
	return &Service{store: s}
}

// CompleteActivity marks an activity done for the session's user and awards
// its points (the default when the activity has none).
func (s *Service) CompleteActivity(ctx context.Context, session *model.Session, activityID uuid.UUID) (*model.Progress, error) {
	if session == nil || session.UserID == uuid.Nil {
		return nil, errors.New("no user in session")
	}

	activity, err := s.store.GetActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}

	points := activity.Points
	if points <= 0 {
		points = model.DefaultActivityPoints
	}

	progress, err := s.store.RecordCompletion(ctx, model.Progress{
		UserID:        session.UserID,
		ActivityID:    activity.ID,
		ActivityTitle: activity.Title,
		PointsEarned:  points,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, ErrAlreadyCompleted
	}
	if err != nil {
		return nil, err
	}

	observability.RecordCompletion()
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"user_id":     session.UserID,
		"activity_id": activity.ID,
		"points":      points,
	}).Info("activity completed")
	return progress, nil
}

// Achievements reports the user's totals, completions and next milestone.
func (s *Service) Achievements(ctx context.Context, userID uuid.UUID) (*model.Achievements, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	completed, err := s.store.ListProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	next := NextMilestone(profile.TotalPoints)
	return &model.Achievements{
		TotalPoints:     profile.TotalPoints,
		TotalActivities: profile.TotalActivities,
		NextMilestone:   next,
		ProgressPercent: progressPercent(profile.TotalPoints, next),
		Completed:       completed,
	}, nil
}

// NextMilestone is the first milestone above points, or the last one once
// every milestone is reached.
func NextMilestone(points int) model.Milestone {
	for _, m := range Milestones {
		if m.Points > points {
			return m
		}
	}
	return Milestones[len(Milestones)-1]
}

func progressPercent(points int, m model.Milestone) float64 {
	if m.Points <= 0 || points <= 0 {
		return 0
	}
	pct := float64(points) / float64(m.Points) * 100
	return math.Min(math.Round(pct*10)/10, 100)
}
