package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds a parent's display name and accumulated rewards.
type Profile struct {
	UserID          uuid.UUID `json:"userId"`
	FullName        string    `json:"fullName"`
	TotalPoints     int       `json:"totalPoints"`
	TotalActivities int       `json:"totalActivities"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Progress records one completed activity.
type Progress struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"userId"`
	ActivityID    uuid.UUID `json:"activityId"`
	ActivityTitle string    `json:"activityTitle,omitempty"`
	PointsEarned  int       `json:"pointsEarned"`
	CompletedAt   time.Time `json:"completedAt"`
}

// Milestone is a named points threshold.
type Milestone struct {
	Points int    `json:"points"`
	Label  string `json:"label"`
	Icon   string `json:"icon"`
}

// Achievements summarises a profile against the milestones.
type Achievements struct {
	TotalPoints     int        `json:"totalPoints"`
	TotalActivities int        `json:"totalActivities"`
	NextMilestone   Milestone  `json:"nextMilestone"`
	ProgressPercent float64    `json:"progressPercent"`
	Completed       []Progress `json:"completed"`
}
